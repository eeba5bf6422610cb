/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "godiagram/internal/log"
	"godiagram/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// RevisionsDirName holds the per-document revision stores next to the documents.
	RevisionsDirName = ".gdg"

	// schemaVersion tracks the local SQLite schema of the revision store.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// RevisionKind tells why a revision was recorded.
type RevisionKind string

const (
	KindAutosave   RevisionKind = "autosave"
	KindCheckpoint RevisionKind = "checkpoint"
	KindCrash      RevisionKind = "crash"
)

// ErrRevisionNotFound is returned when a revision id does not exist.
var ErrRevisionNotFound = errors.New("revision not found")

// Revision is one stored document state. Blob is the serialized document;
// listings leave it empty and report Size instead.
type Revision struct {
	ID    int64
	TS    time.Time
	Kind  RevisionKind
	Label string
	Size  int
	Blob  []byte
}

// RevisionStorePath returns the revision database for the document at docPath.
func RevisionStorePath(docPath string) string {
	return filepath.Join(filepath.Dir(docPath), RevisionsDirName, DocName(docPath)+".sqlite")
}

// RevisionStore is the SQLite database of a single document's revisions.
type RevisionStore struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// OpenRevisionStore opens or creates the revision store of the document at docPath.
// A store that cannot be opened or fails the integrity check is backed up to
// .gdg/backups and recreated empty.
func OpenRevisionStore(docPath string) (*RevisionStore, error) {
	if strings.TrimSpace(docPath) == "" {
		return nil, errors.New("document path is required")
	}
	path := RevisionStorePath(docPath)
	l := applog.WithOperation(applog.WithComponent("storage"), "revisions_open").With(slog.String("path", path))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create .gdg dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .gdg dir: %w", err)
	}
	db, err := openRevisionDB(path)
	if err == nil && !healthy(db) {
		_ = db.Close()
		err = errors.New("integrity check failed")
	}
	if err != nil {
		l.Warn("revision store unusable, recreating", slog.Any("err", err))
		backupStoreFile(path)
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(path + suffix)
		}
		db, err = openRevisionDB(path)
		if err != nil {
			l.Error("recreate revision store failed", slog.Any("err", err))
			return nil, err
		}
	}
	l.Debug("revision store ready")
	return &RevisionStore{db: db, path: path, log: applog.WithComponent("storage").With(slog.String("store", path))}, nil
}

// Path returns the database file.
func (s *RevisionStore) Path() string { return s.path }

// Close releases the database.
func (s *RevisionStore) Close() error { return s.db.Close() }

func openRevisionDB(path string) (*sql.DB, error) {
	// Use a URI with a busy timeout and foreign keys on. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureRevisionSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureThumbnailsTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func healthy(db *sql.DB) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(chk), "ok")
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureRevisionSchema(ctx context.Context, db *sql.DB) error {
	// ts is unix nanoseconds so ordering is numeric.
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS revisions (
			id    INTEGER PRIMARY KEY,
			ts    INTEGER NOT NULL,
			kind  TEXT    NOT NULL,
			label TEXT    NOT NULL DEFAULT '',
			blob  BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_revisions_ts ON revisions(ts);`,
		`CREATE INDEX IF NOT EXISTS idx_revisions_kind_ts ON revisions(kind, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure revision schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// Pruning and "latest autosave" filter by kind
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_revisions_kind_ts ON revisions(kind, ts);`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// backupStoreFile copies the store into a timestamped backup in .gdg/backups.
func backupStoreFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format(backupStamp)
	_ = copyFile(path, filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp)))
}
