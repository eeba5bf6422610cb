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
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"godiagram/internal/config"
	"godiagram/internal/crash"
	"godiagram/internal/editor"
	applog "godiagram/internal/log"
	"godiagram/internal/storage"
)

// ErrNoDocumentPath is returned by operations that need a saved document.
var ErrNoDocumentPath = errors.New("document has not been saved yet")

// Session ties an editor to the document file it edits, the file's revision
// store and the crash target. It holds no widgets so the desktop frontend
// and tests share it.
type Session struct {
	Ed     *editor.Editor
	Doc    *storage.DocumentHandle
	Target *crash.Target

	cfg   config.AppConfig
	revs  *storage.RevisionStore
	saver *Autosaver
	log   *slog.Logger
}

// NewSession wraps ed. The crash target always marshals the live editor.
func NewSession(ed *editor.Editor, cfg config.AppConfig) *Session {
	s := &Session{
		Ed:     ed,
		Target: &crash.Target{},
		cfg:    cfg,
		log:    applog.WithComponent("session"),
	}
	s.Target.Marshal = ed.Marshal
	return s
}

// editorConfig maps the persisted editor settings.
func editorConfig(c config.EditorConfig) editor.Config {
	return editor.Config{
		HistoryLimit:           c.HistoryLimit,
		SnapThreshold:          c.SnapThreshold,
		ConnectionSnapDistance: c.ConnectionSnapDistance,
		GridSize:               c.GridSize,
		GridEnabled:            c.GridEnabled,
		SnapToGrid:             c.SnapToGrid,
		GuidelinesEnabled:      c.GuidelinesEnabled,
	}
}

// Title is the window title: document name plus a dirty marker.
func (s *Session) Title() string {
	name := "Untitled"
	if s.Doc != nil {
		name = storage.DocName(s.Doc.Path)
	}
	if s.Ed.Dirty() {
		name = "*" + name
	}
	return name + " - GoDiagram"
}

// Revisions returns the open revision store, or nil for unsaved documents.
func (s *Session) Revisions() *storage.RevisionStore { return s.revs }

// Open loads the document at path into the editor. A document recovered
// from a backup is reported through the returned handle's FromBackup.
func (s *Session) Open(path string) (*storage.DocumentHandle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	h, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	data, err := storage.EncodeDocument(h.Doc)
	if err != nil {
		return nil, err
	}
	if err := s.Ed.Load(data); err != nil {
		return nil, err
	}
	s.attach(h)
	s.log.InfoContext(applog.WithDocument(context.Background(), h.Path), "document opened", slog.Int("shapes", s.Ed.Scene().Len()))
	return h, nil
}

// New clears the editor and detaches the current file.
func (s *Session) New() {
	s.Ed.NewDocument()
	s.detach()
}

// Save writes the editor state to the current file and records a
// checkpoint revision.
func (s *Session) Save(ctx context.Context) error {
	if s.Doc == nil {
		return ErrNoDocumentPath
	}
	s.Doc.Doc = s.Ed.Document()
	if err := storage.Save(s.Doc); err != nil {
		return err
	}
	s.Ed.MarkSaved()
	s.checkpoint(ctx, "save")
	return nil
}

// SaveAs writes the editor state to path, adding the document extension
// when path has none, and makes path the current file.
func (s *Session) SaveAs(ctx context.Context, path string) error {
	if filepath.Ext(path) == "" {
		path += storage.DocumentExt
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if s.Doc != nil && s.Doc.Path == abs {
		return s.Save(ctx)
	}
	h := &storage.DocumentHandle{Doc: s.Ed.Document()}
	if err := storage.SaveAs(h, abs); err != nil {
		return err
	}
	s.attach(h)
	s.Ed.MarkSaved()
	s.checkpoint(ctx, "save")
	return nil
}

// Autosave records the editor state when it changed since the last call.
// Unsaved documents have no revision store and are skipped.
func (s *Session) Autosave(ctx context.Context) (int64, error) {
	if s.saver == nil {
		return 0, nil
	}
	return s.saver.Save(ctx, s.Ed)
}

// Restore replaces the editor content with revision id and writes it to
// the document file. The replaced state is kept as a checkpoint.
func (s *Session) Restore(ctx context.Context, id int64) error {
	if s.revs == nil {
		return ErrNoDocumentPath
	}
	rev, err := s.revs.Revision(ctx, id)
	if err != nil {
		return err
	}
	cur, err := s.Ed.Marshal()
	if err != nil {
		return err
	}
	if err := s.Ed.Load(rev.Blob); err != nil {
		return fmt.Errorf("revision %d: %w", id, err)
	}
	ctx = applog.WithDocument(ctx, s.Doc.Path)
	if _, err := s.revs.SaveRevision(ctx, storage.KindCheckpoint, fmt.Sprintf("before restore %d", id), cur, time.Time{}); err != nil {
		s.log.WarnContext(ctx, "checkpoint before restore failed", slog.Any("err", err))
	}
	s.Doc.Doc = s.Ed.Document()
	if err := storage.Save(s.Doc); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "revision restored", slog.Int64("revision", id))
	return nil
}

// History lists the newest revisions of the current document.
func (s *Session) History(ctx context.Context, limit int) ([]storage.Revision, error) {
	if s.revs == nil {
		return nil, ErrNoDocumentPath
	}
	return s.revs.ListRevisions(ctx, limit)
}

// Close releases the revision store.
func (s *Session) Close() {
	s.detach()
}

func (s *Session) checkpoint(ctx context.Context, label string) {
	if s.revs == nil {
		return
	}
	blob, err := s.Ed.Marshal()
	if err != nil {
		return
	}
	if _, err := s.revs.SaveRevision(ctx, storage.KindCheckpoint, label, blob, time.Time{}); err != nil {
		s.log.WarnContext(applog.WithDocument(ctx, s.Doc.Path), "checkpoint failed", slog.Any("err", err))
	}
}

func (s *Session) attach(h *storage.DocumentHandle) {
	if s.Doc != nil && s.revs != nil && s.Doc.Path == h.Path {
		s.Doc = h
		return
	}
	s.detach()
	s.Doc = h
	s.Target.Path = h.Path
	rs, err := storage.OpenRevisionStore(h.Path)
	if err != nil {
		// the document stays editable without history
		s.log.WarnContext(applog.WithDocument(context.Background(), h.Path), "revision store unavailable", slog.Any("err", err))
		return
	}
	s.revs = rs
	s.saver = NewAutosaver(rs, s.cfg.General.AutosaveKeep)
}

func (s *Session) detach() {
	if s.revs != nil {
		if err := s.revs.Close(); err != nil {
			s.log.Warn("close revision store", slog.Any("err", err))
		}
	}
	s.revs = nil
	s.saver = nil
	s.Doc = nil
	s.Target.Path = ""
}

// editorKey translates a named desktop key into the editor's key names.
// Printable characters arrive as runes and are passed through unchanged.
func editorKey(name string) string {
	switch name {
	case "Delete":
		return editor.KeyDelete
	case "BackSpace":
		return editor.KeyBackspace
	case "Escape":
		return editor.KeyEscape
	case "Left":
		return editor.KeyArrowLeft
	case "Right":
		return editor.KeyArrowRight
	case "Up":
		return editor.KeyArrowUp
	case "Down":
		return editor.KeyArrowDown
	}
	if len(name) == 1 {
		return strings.ToLower(name)
	}
	return ""
}
