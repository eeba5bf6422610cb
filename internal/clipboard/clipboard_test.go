/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package clipboard

import (
	"errors"
	"testing"

	"godiagram/internal/diagram"
	"godiagram/internal/editor"
)

func fake(unsupported bool, failing error) (*System, *string) {
	stored := new(string)
	s := &System{
		read: func() (string, error) {
			if failing != nil {
				return "", failing
			}
			return *stored, nil
		},
		write: func(v string) error {
			if failing != nil {
				return failing
			}
			*stored = v
			return nil
		},
		unsupported: func() bool { return unsupported },
	}
	return s, stored
}

func TestWritesThroughToSystemClipboard(t *testing.T) {
	s, stored := fake(false, nil)
	if err := s.WriteAll("hello"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if *stored != "hello" {
		t.Fatalf("system clipboard got %q", *stored)
	}
	*stored = "changed elsewhere"
	if got, _ := s.ReadAll(); got != "changed elsewhere" {
		t.Fatalf("read should prefer system clipboard, got %q", got)
	}
}

func TestFallsBackWhenUnsupported(t *testing.T) {
	s, stored := fake(true, nil)
	_ = s.WriteAll("x")
	if *stored != "" {
		t.Fatalf("unsupported clipboard must not be written")
	}
	if got, err := s.ReadAll(); err != nil || got != "x" {
		t.Fatalf("fallback read: %q, %v", got, err)
	}
}

func TestFallsBackOnErrors(t *testing.T) {
	s, _ := fake(false, errors.New("no xclip"))
	if err := s.WriteAll("y"); err != nil {
		t.Fatalf("write errors should be absorbed: %v", err)
	}
	if got, err := s.ReadAll(); err != nil || got != "y" {
		t.Fatalf("fallback read: %q, %v", got, err)
	}
}

func TestEditorCopyPasteThroughSystemClipboard(t *testing.T) {
	s, stored := fake(false, nil)
	ed := editor.New(editor.DefaultConfig(), nil)
	ed.SetClipboard(s)
	r := diagram.NewRectangle(10, 10, 100, 50)
	ed.Scene().AddShape(r)
	ed.Scene().Select(r)
	if err := ed.Copy(); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if *stored == "" {
		t.Fatalf("copy did not reach the clipboard")
	}
	if err := ed.Paste(); err != nil {
		t.Fatalf("paste: %v", err)
	}
	if n := ed.Scene().Len(); n != 2 {
		t.Fatalf("expected 2 shapes after paste, got %d", n)
	}
}
