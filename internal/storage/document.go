/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"godiagram/internal/diagram"
	applog "godiagram/internal/log"
)

const (
	// DocumentExt is the extension of saved diagrams.
	DocumentExt    = ".gdg.json"
	BackupsDirName = "backups"

	backupStamp = "20060102-150405"
)

// DocumentHandle keeps track of a document loaded from or saved to disk.
// Path is the document file; Doc holds the in-memory representation.
// FromBackup is set when Open had to fall back to a backup.
type DocumentHandle struct {
	Path       string
	Doc        diagram.Document
	FromBackup string
}

// DocName returns the base name of a document path without its extension.
func DocName(path string) string {
	base := filepath.Base(path)
	if strings.HasSuffix(base, DocumentExt) {
		return strings.TrimSuffix(base, DocumentExt)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BackupsDir returns the backups folder next to the document.
func BackupsDir(path string) string {
	return filepath.Join(filepath.Dir(path), BackupsDirName)
}

// Create writes doc as a new document at path, creating parent folders as needed.
func Create(path string, doc diagram.Document) (*DocumentHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("document path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	h := &DocumentHandle{Path: path, Doc: doc}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads a document. If the file cannot be read or parsed, it will attempt the latest backup.
func Open(path string) (*DocumentHandle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	b, err := os.ReadFile(path)
	if err != nil {
		return openFromLatestBackup(l, path, fmt.Errorf("open document: %w", err))
	}
	d, perr := diagram.ParseDocument(b)
	if perr != nil {
		return openFromLatestBackup(l, path, fmt.Errorf("parse document: %w", perr))
	}
	return &DocumentHandle{Path: path, Doc: d}, nil
}

// Save writes the handle's document to disk with transactional semantics
// and a timestamped backup of the previous file (if present).
func Save(h *DocumentHandle) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if h.Path == "" {
		return errors.New("invalid DocumentHandle: missing path")
	}
	data, err := EncodeDocument(h.Doc)
	if err != nil {
		return err
	}

	bdir := BackupsDir(h.Path)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	// Copy the current file to a timestamped backup before replacing it.
	// A damaged file is not backed up so it cannot shadow an intact backup.
	if cur, rerr := os.ReadFile(h.Path); rerr == nil && parses(cur) {
		bname := fmt.Sprintf("%s.%s.bak", DocName(h.Path), time.Now().Format(backupStamp))
		if cerr := copyFile(h.Path, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	dir := filepath.Dir(h.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(h.Path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	h.FromBackup = ""
	return nil
}

// SaveAs writes the document to a new path and retargets the handle.
func SaveAs(h *DocumentHandle, path string) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if path == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	h.Path = path
	return Save(h)
}

// EncodeDocument renders d in the indented on-disk form.
func EncodeDocument(d diagram.Document) ([]byte, error) {
	compact, err := diagram.MarshalDocument(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Backups lists the backup files of the document at path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := BackupsDir(path)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := DocName(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func parses(b []byte) bool {
	_, err := diagram.ParseDocument(b)
	return err == nil
}

func openFromLatestBackup(l *slog.Logger, path string, cause error) (*DocumentHandle, error) {
	candidates, err := Backups(path)
	if err != nil {
		return nil, fmt.Errorf("%w; backup attempt: %v", cause, err)
	}
	// Newest first; skip backups that are themselves damaged.
	for i := len(candidates) - 1; i >= 0; i-- {
		b, rerr := os.ReadFile(candidates[i])
		if rerr != nil {
			continue
		}
		d, perr := diagram.ParseDocument(b)
		if perr != nil {
			continue
		}
		l.Warn("document unreadable, opened latest backup", slog.String("backup", candidates[i]), slog.String("err", cause.Error()))
		return &DocumentHandle{Path: path, Doc: d, FromBackup: candidates[i]}, nil
	}
	return nil, fmt.Errorf("%w; backup attempt: no usable backups found", cause)
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
