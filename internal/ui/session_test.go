/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"godiagram/internal/config"
	"godiagram/internal/diagram"
	"godiagram/internal/editor"
	"godiagram/internal/storage"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	cfg := config.Defaults()
	cfg.General.AutosaveKeep = 2
	s := NewSession(editor.New(editorConfig(cfg.Editor), editor.NopNotifier{}), cfg)
	t.Cleanup(s.Close)
	return s
}

func writeDoc(t *testing.T, dir string, shapes int) string {
	t.Helper()
	sc := diagram.NewScene()
	for i := 0; i < shapes; i++ {
		sc.AddShape(diagram.NewRectangle(float64(i)*120, 0, 100, 50))
	}
	doc := diagram.NewDocument()
	doc.Shapes = sc.Records()
	path := filepath.Join(dir, "flow"+storage.DocumentExt)
	if _, err := storage.Create(path, doc); err != nil {
		t.Fatalf("create: %v", err)
	}
	return path
}

func TestSessionOpenEditSave(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	path := writeDoc(t, t.TempDir(), 2)

	if _, err := s.Open(path); err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Ed.Scene().Len() != 2 || s.Target.Path != path || s.Revisions() == nil {
		t.Fatalf("session not attached: len=%d target=%q", s.Ed.Scene().Len(), s.Target.Path)
	}
	if got := s.Title(); got != "flow - GoDiagram" {
		t.Fatalf("title: %q", got)
	}

	s.Ed.SelectAll()
	s.Ed.DeleteSelected()
	if !strings.HasPrefix(s.Title(), "*") {
		t.Fatalf("dirty marker missing: %q", s.Title())
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Ed.Dirty() {
		t.Fatalf("editor still dirty after save")
	}
	h, err := storage.Open(path)
	if err != nil || len(h.Doc.Shapes) != 0 {
		t.Fatalf("saved doc: %v %+v", err, h)
	}
	revs, err := s.History(ctx, 10)
	if err != nil || len(revs) != 1 || revs[0].Kind != storage.KindCheckpoint {
		t.Fatalf("history after save: %v %+v", err, revs)
	}
}

func TestSessionUnsavedDocument(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	if err := s.Save(ctx); !errors.Is(err, ErrNoDocumentPath) {
		t.Fatalf("expected ErrNoDocumentPath, got %v", err)
	}
	if id, err := s.Autosave(ctx); err != nil || id != 0 {
		t.Fatalf("autosave without file: %d %v", id, err)
	}
	if _, err := s.History(ctx, 10); !errors.Is(err, ErrNoDocumentPath) {
		t.Fatalf("history without file: %v", err)
	}

	path := filepath.Join(t.TempDir(), "drawing")
	if err := s.SaveAs(ctx, path); err != nil {
		t.Fatalf("save as: %v", err)
	}
	if _, err := os.Stat(path + storage.DocumentExt); err != nil {
		t.Fatalf("extension not added: %v", err)
	}
	if s.Doc == nil || s.Revisions() == nil {
		t.Fatalf("save as did not attach the file")
	}

	s.New()
	if s.Doc != nil || s.Target.Path != "" || s.Revisions() != nil {
		t.Fatalf("new document still attached")
	}
}

func TestSessionAutosaveAndRestore(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	path := writeDoc(t, t.TempDir(), 3)
	if _, err := s.Open(path); err != nil {
		t.Fatalf("open: %v", err)
	}

	first, err := s.Autosave(ctx)
	if err != nil || first == 0 {
		t.Fatalf("autosave: %d %v", first, err)
	}
	s.Ed.SelectAll()
	s.Ed.DeleteSelected()
	if _, err := s.Autosave(ctx); err != nil {
		t.Fatalf("second autosave: %v", err)
	}

	if err := s.Restore(ctx, first); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.Ed.Scene().Len() != 3 {
		t.Fatalf("restored scene has %d shapes", s.Ed.Scene().Len())
	}
	h, err := storage.Open(path)
	if err != nil || len(h.Doc.Shapes) != 3 {
		t.Fatalf("restore not written: %v", err)
	}
	revs, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var found bool
	for _, r := range revs {
		if r.Kind == storage.KindCheckpoint && strings.HasPrefix(r.Label, "before restore") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no checkpoint of the replaced state: %+v", revs)
	}
	if err := s.Restore(ctx, 999); err == nil {
		t.Fatalf("expected error for missing revision")
	}
}

func TestEditorKey(t *testing.T) {
	cases := map[string]string{
		"Delete":    editor.KeyDelete,
		"BackSpace": editor.KeyBackspace,
		"Escape":    editor.KeyEscape,
		"Left":      editor.KeyArrowLeft,
		"Down":      editor.KeyArrowDown,
		"V":         "v",
		"F12":       "",
	}
	for in, want := range cases {
		if got := editorKey(in); got != want {
			t.Fatalf("editorKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEditorConfigFromSettings(t *testing.T) {
	c := config.Defaults().Editor
	c.GridSize = 40
	c.SnapToGrid = false
	ec := editorConfig(c)
	if ec.GridSize != 40 || ec.SnapToGrid || ec.HistoryLimit != c.HistoryLimit {
		t.Fatalf("unexpected mapping: %+v", ec)
	}
	ed := editor.New(ec, nil)
	if ed.GridSize() != 40 || ed.SnapToGrid() {
		t.Fatalf("editor ignored settings: size=%v snap=%v", ed.GridSize(), ed.SnapToGrid())
	}
}
