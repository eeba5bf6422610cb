/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"fmt"
	"testing"
)

func snap(s string) Snapshot { return Snapshot{Blob: []byte(s)} }

func TestUndoRedoBasic(t *testing.T) {
	h := NewHistory(Config{})
	h.Reset(snap("base"))
	h.Push(snap("a"))
	h.Push(snap("b"))
	if h.Len() != 3 || h.Index() != 2 {
		t.Fatalf("expected 3 entries at index 2, got len=%d idx=%d", h.Len(), h.Index())
	}
	s, ok := h.Undo()
	if !ok || string(s.Blob) != "a" {
		t.Fatalf("undo expected 'a', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = h.Redo()
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("redo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if _, ok := h.Redo(); ok {
		t.Fatalf("redo past the end should fail")
	}
}

func TestUndoNRedoN(t *testing.T) {
	h := NewHistory(Config{})
	h.Reset(snap("0"))
	const n = 7
	for i := 1; i <= n; i++ {
		h.Push(snap(fmt.Sprint(i)))
	}
	var s Snapshot
	for i := 0; i < n; i++ {
		s, _ = h.Undo()
	}
	if string(s.Blob) != "0" || h.CanUndo() {
		t.Fatalf("undo %d times should reach the baseline, got %q", n, s.Blob)
	}
	for i := 0; i < n; i++ {
		s, _ = h.Redo()
	}
	if string(s.Blob) != fmt.Sprint(n) || h.CanRedo() {
		t.Fatalf("redo %d times should reach the newest, got %q", n, s.Blob)
	}
}

func TestPushAfterUndoDropsRedoTail(t *testing.T) {
	h := NewHistory(Config{})
	h.Reset(snap("0"))
	h.Push(snap("1"))
	h.Push(snap("2"))
	h.Undo()
	h.Undo()
	h.Push(snap("x"))
	if h.CanRedo() || h.Len() != 2 {
		t.Fatalf("redo tail should be gone: len=%d canRedo=%v", h.Len(), h.CanRedo())
	}
	tb, _ := h.Stats()
	if tb != 2 {
		t.Fatalf("byte accounting should only count '0' and 'x', got %d", tb)
	}
}

func TestLimitKeepsNewest(t *testing.T) {
	h := NewHistory(Config{Limit: 50})
	for i := 0; i < 60; i++ {
		h.Push(snap(fmt.Sprint(i)))
	}
	if h.Len() != 50 || h.Index() != 49 {
		t.Fatalf("expected 50 retained, got len=%d idx=%d", h.Len(), h.Index())
	}
	for h.CanUndo() {
		h.Undo()
	}
	s, _ := h.Current()
	if string(s.Blob) != "10" {
		t.Fatalf("oldest retained should be '10', got %q", s.Blob)
	}
}

func TestBlobIsCopied(t *testing.T) {
	h := NewHistory(Config{})
	buf := []byte("abc")
	h.Push(Snapshot{Blob: buf})
	buf[0] = 'z'
	s, _ := h.Current()
	if string(s.Blob) != "abc" {
		t.Fatalf("history must not alias caller buffers, got %q", s.Blob)
	}
}
