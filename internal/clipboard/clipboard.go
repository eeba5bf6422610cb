/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package clipboard connects the editor's copy and paste to the system
// clipboard. Without a usable system clipboard (headless CI, missing
// xclip/xsel) it keeps the text in process.
package clipboard

import (
	"log/slog"
	"sync"

	"github.com/atotto/clipboard"

	applog "godiagram/internal/log"
)

// System implements editor.Clipboard.
type System struct {
	mu       sync.Mutex
	fallback string
	warned   bool

	read  func() (string, error)
	write func(string) error
	// unsupported reports whether the platform has no clipboard tool.
	unsupported func() bool
}

// New returns a clipboard backed by github.com/atotto/clipboard.
func New() *System {
	return &System{
		read:        clipboard.ReadAll,
		write:       clipboard.WriteAll,
		unsupported: func() bool { return clipboard.Unsupported },
	}
}

// ReadAll returns the system clipboard text or the in-process copy.
func (s *System) ReadAll() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsupported() {
		return s.fallback, nil
	}
	text, err := s.read()
	if err != nil {
		s.warn(err)
		return s.fallback, nil
	}
	return text, nil
}

// WriteAll stores text in the system clipboard and always in process, so
// a later read still works if the system clipboard goes away.
func (s *System) WriteAll(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = text
	if s.unsupported() {
		return nil
	}
	if err := s.write(text); err != nil {
		s.warn(err)
	}
	return nil
}

func (s *System) warn(err error) {
	if s.warned {
		return
	}
	s.warned = true
	applog.WithComponent("clipboard").Warn("system clipboard unavailable, using in-process clipboard", slog.String("err", err.Error()))
}
