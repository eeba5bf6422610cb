/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps a bounded, linear history of document snapshots.
package undo

import (
	"sync"
	"time"
)

// DefaultLimit is the number of snapshots retained when Config.Limit is unset.
const DefaultLimit = 50

// Snapshot is an immutable serialized document state.
// Blob content is opaque to the history; size is estimated as len(Blob).
type Snapshot struct {
	Blob  []byte
	Label string
	TS    time.Time
}

// Config controls depth and memory caps.
type Config struct {
	// Limit is the maximum number of snapshots kept, including the baseline.
	Limit int
	// MaxBytes is a soft cap; older entries are pruned when exceeded (0 means unlimited).
	// The current entry is never pruned.
	MaxBytes int
}

// History is a linear undo/redo list with a cursor. Pushing after an undo
// discards the redo tail. It is safe for concurrent use.
type History struct {
	cfg Config
	mu  sync.Mutex

	entries []Snapshot
	// idx points at the snapshot matching the live document; -1 when empty.
	idx        int
	totalBytes int
}

func NewHistory(cfg Config) *History {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &History{cfg: cfg, idx: -1}
}

// Push records s as the newest state. The blob is copied so callers may reuse their buffer.
func (h *History) Push(s Snapshot) {
	s.Blob = append([]byte(nil), s.Blob...)
	if s.TS.IsZero() {
		s.TS = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries[h.idx+1:] {
		h.totalBytes -= len(e.Blob)
	}
	h.entries = append(h.entries[:h.idx+1], s)
	h.idx = len(h.entries) - 1
	h.totalBytes += len(s.Blob)
	h.enforceCapsLocked()
}

// Reset drops all entries and installs baseline as the only one.
func (h *History) Reset(baseline Snapshot) {
	h.mu.Lock()
	h.entries = nil
	h.idx = -1
	h.totalBytes = 0
	h.mu.Unlock()
	h.Push(baseline)
}

// Undo moves the cursor back and returns the state to restore.
func (h *History) Undo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx <= 0 {
		return Snapshot{}, false
	}
	h.idx--
	return h.entries[h.idx], true
}

// Redo moves the cursor forward and returns the state to restore.
func (h *History) Redo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx >= len(h.entries)-1 {
		return Snapshot{}, false
	}
	h.idx++
	return h.entries[h.idx], true
}

// Current returns the snapshot at the cursor.
func (h *History) Current() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx < 0 {
		return Snapshot{}, false
	}
	return h.entries[h.idx], true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idx > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idx < len(h.entries)-1
}

// Len is the number of retained snapshots.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index is the cursor position, -1 for an empty history.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idx
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() (totalBytes int, entries int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalBytes, len(h.entries)
}

func (h *History) enforceCapsLocked() {
	drop := 0
	if n := len(h.entries); n > h.cfg.Limit {
		drop = n - h.cfg.Limit
	}
	bytes := h.totalBytes
	for i := 0; i < drop; i++ {
		bytes -= len(h.entries[i].Blob)
	}
	// memory cap: prune oldest, but keep the entry at the cursor
	for h.cfg.MaxBytes > 0 && bytes > h.cfg.MaxBytes && drop < h.idx {
		bytes -= len(h.entries[drop].Blob)
		drop++
	}
	if drop == 0 {
		return
	}
	h.entries = append([]Snapshot{}, h.entries[drop:]...)
	h.idx -= drop
	h.totalBytes = bytes
}
