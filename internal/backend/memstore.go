/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDSN selects the in-memory store instead of PostgreSQL.
const MemoryDSN = "memory"

// MemoryStore is a Store kept in process memory. It backs the server when
// GDG_DATABASE_URL is "memory" and nothing survives a restart.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]memUser // by email
	diagrams map[string]*memDiagram
}

type memUser struct {
	user User
	hash string
}

type memDiagram struct {
	owner     string
	info      DiagramInfo
	revisions []DiagramPayload
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: map[string]memUser{}, diagrams: map[string]*memDiagram{}}
}

func (m *MemoryStore) CreateUser(_ context.Context, u User, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return ErrEmailTaken
	}
	m.users[u.Email] = memUser{user: u, hash: hash}
	return nil
}

func (m *MemoryStore) UserByEmail(_ context.Context, email string) (User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return User{}, "", ErrNotFound
	}
	return u.user, u.hash, nil
}

func (m *MemoryStore) ListDiagrams(_ context.Context, owner string) ([]DiagramInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []DiagramInfo{}
	for _, d := range m.diagrams {
		if d.owner == owner {
			list = append(list, d.info)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list, nil
}

func (m *MemoryStore) Publish(_ context.Context, owner string, in PublishInput) (DiagramInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	d, ok := m.diagrams[in.ID]
	switch {
	case in.ID == "":
		d = &memDiagram{owner: owner, info: DiagramInfo{ID: uuid.NewString(), Name: in.Name, CreatedAt: now}}
		m.diagrams[d.info.ID] = d
	case !ok || d.owner != owner:
		return DiagramInfo{}, ErrNotFound
	case in.Name != "":
		d.info.Name = in.Name
	}
	d.info.Version++
	d.info.Shapes = in.Shapes
	d.info.UpdatedAt = now
	d.revisions = append(d.revisions, DiagramPayload{DiagramInfo: d.info, Document: append([]byte(nil), in.Document...)})
	return d.info, nil
}

func (m *MemoryStore) Diagram(_ context.Context, owner, id string, version int) (DiagramPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.diagrams[id]
	if !ok || d.owner != owner {
		return DiagramPayload{}, ErrNotFound
	}
	if version <= 0 {
		version = d.info.Version
	}
	if version > len(d.revisions) {
		return DiagramPayload{}, ErrNotFound
	}
	return d.revisions[version-1], nil
}

func (m *MemoryStore) DeleteDiagram(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.diagrams[id]
	if !ok || d.owner != owner {
		return ErrNotFound
	}
	delete(m.diagrams, id)
	return nil
}

func (m *MemoryStore) Revisions(_ context.Context, owner, id string) ([]RevisionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.diagrams[id]
	if !ok || d.owner != owner {
		return nil, ErrNotFound
	}
	var list []RevisionInfo
	for i := len(d.revisions) - 1; i >= 0; i-- {
		r := d.revisions[i]
		list = append(list, RevisionInfo{Version: r.Version, Shapes: r.Shapes, Size: len(r.Document), CreatedAt: r.UpdatedAt})
	}
	return list, nil
}
