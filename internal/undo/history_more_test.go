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
	"sync"
	"testing"
)

func TestMemoryCapPrunesOldest(t *testing.T) {
	// Very small MaxBytes so pruning triggers
	h := NewHistory(Config{Limit: 100, MaxBytes: 8})
	h.Push(snap("xxxx"))
	h.Push(snap("yyyy"))
	h.Push(snap("zzzz"))
	tb, n := h.Stats()
	if n != 2 || tb != 8 {
		t.Fatalf("expected oldest pruned to 2 entries/8 bytes, got n=%d tb=%d", n, tb)
	}
	s, ok := h.Undo()
	if !ok || string(s.Blob) != "yyyy" {
		t.Fatalf("expected 'yyyy' after prune, got ok=%v %q", ok, s.Blob)
	}
}

func TestMemoryCapKeepsCurrent(t *testing.T) {
	h := NewHistory(Config{MaxBytes: 2})
	h.Push(snap("huge-blob"))
	if h.Len() != 1 {
		t.Fatalf("the current entry must survive the memory cap")
	}
}

func TestEmptyHistory(t *testing.T) {
	h := NewHistory(Config{})
	if h.CanUndo() || h.CanRedo() || h.Index() != -1 {
		t.Fatalf("empty history should be inert")
	}
	if _, ok := h.Undo(); ok {
		t.Fatalf("undo on empty history")
	}
	if _, ok := h.Current(); ok {
		t.Fatalf("current on empty history")
	}
}

func TestConcurrentPush(t *testing.T) {
	h := NewHistory(Config{Limit: 10})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				h.Push(snap("x"))
			}
		}()
	}
	wg.Wait()
	if h.Len() != 10 {
		t.Fatalf("expected limit to hold under concurrency, got %d", h.Len())
	}
}
