/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend implements the shared diagram library: an HTTP server
// that stores published diagrams as immutable revisions in PostgreSQL, and
// the client the CLI uses to talk to it.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a library account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// DiagramInfo describes the latest revision of a published diagram.
type DiagramInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	Shapes    int       `json:"shapes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DiagramPayload is one revision including its document.
type DiagramPayload struct {
	DiagramInfo
	Document json.RawMessage `json:"document"`
}

// RevisionInfo lists a stored revision without its document.
type RevisionInfo struct {
	Version   int       `json:"version"`
	Shapes    int       `json:"shapes"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublishInput is a document to store. An empty ID creates a new diagram;
// otherwise a revision is appended to the caller's diagram with that ID.
type PublishInput struct {
	ID       string
	Name     string
	Document []byte
	Shapes   int
}

// Store persists users and diagrams. All diagram operations are scoped to
// the owning user; a foreign diagram is reported as ErrNotFound.
type Store interface {
	CreateUser(ctx context.Context, u User, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (User, string, error)

	ListDiagrams(ctx context.Context, ownerID string) ([]DiagramInfo, error)
	Publish(ctx context.Context, ownerID string, in PublishInput) (DiagramInfo, error)
	// Diagram returns the given version, or the latest for version <= 0.
	Diagram(ctx context.Context, ownerID, id string, version int) (DiagramPayload, error)
	DeleteDiagram(ctx context.Context, ownerID, id string) error
	Revisions(ctx context.Context, ownerID, id string) ([]RevisionInfo, error)
}
