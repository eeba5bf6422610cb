/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	applog "godiagram/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// OpenDB connects to PostgreSQL through the pgx stdlib driver and applies
// the embedded migrations.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// applyMigrations applies embedded SQL migrations in filename order and
// records each in schema_migrations within the same transaction.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "migrate")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES ($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

func (s *PGStore) CreateUser(ctx context.Context, u User, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, email, password_hash, display_name) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, passwordHash, u.DisplayName)
	if isDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PGStore) UserByEmail(ctx context.Context, email string) (User, string, error) {
	var (
		u    User
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.DisplayName, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, "", ErrNotFound
	}
	if err != nil {
		return User{}, "", fmt.Errorf("get user: %w", err)
	}
	return u, hash, nil
}

func (s *PGStore) ListDiagrams(ctx context.Context, ownerID string) ([]DiagramInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.version, r.shape_count, d.created_at, d.updated_at
		FROM diagrams d
		JOIN diagram_revisions r ON r.diagram_id = d.id AND r.version = d.version
		WHERE d.owner_id = $1
		ORDER BY d.updated_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list diagrams: %w", err)
	}
	defer func() { _ = rows.Close() }()
	list := []DiagramInfo{}
	for rows.Next() {
		var d DiagramInfo
		if err := rows.Scan(&d.ID, &d.Name, &d.Version, &d.Shapes, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func (s *PGStore) Publish(ctx context.Context, ownerID string, in PublishInput) (DiagramInfo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DiagramInfo{}, err
	}
	defer func() { _ = tx.Rollback() }()

	d := DiagramInfo{ID: in.ID, Shapes: in.Shapes}
	if d.ID == "" {
		d.ID = uuid.NewString()
		err = tx.QueryRowContext(ctx,
			`INSERT INTO diagrams(id, owner_id, name) VALUES ($1, $2, $3)
			 RETURNING name, version, created_at, updated_at`,
			d.ID, ownerID, in.Name).Scan(&d.Name, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	} else {
		err = tx.QueryRowContext(ctx,
			`UPDATE diagrams SET version = version + 1, name = COALESCE(NULLIF($3, ''), name), updated_at = now()
			 WHERE id = $1 AND owner_id = $2
			 RETURNING name, version, created_at, updated_at`,
			d.ID, ownerID, in.Name).Scan(&d.Name, &d.Version, &d.CreatedAt, &d.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return DiagramInfo{}, ErrNotFound
		}
	}
	if err != nil {
		return DiagramInfo{}, fmt.Errorf("publish diagram: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO diagram_revisions(diagram_id, version, document, shape_count) VALUES ($1, $2, $3, $4)`,
		d.ID, d.Version, string(in.Document), in.Shapes); err != nil {
		return DiagramInfo{}, fmt.Errorf("insert revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return DiagramInfo{}, fmt.Errorf("commit publish: %w", err)
	}
	return d, nil
}

func (s *PGStore) Diagram(ctx context.Context, ownerID, id string, version int) (DiagramPayload, error) {
	var p DiagramPayload
	var doc []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.name, r.version, r.shape_count, d.created_at, r.created_at, r.document
		FROM diagrams d
		JOIN diagram_revisions r ON r.diagram_id = d.id
		WHERE d.id = $1 AND d.owner_id = $2 AND r.version = CASE WHEN $3 > 0 THEN $3 ELSE d.version END`,
		id, ownerID, version).
		Scan(&p.ID, &p.Name, &p.Version, &p.Shapes, &p.CreatedAt, &p.UpdatedAt, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return DiagramPayload{}, ErrNotFound
	}
	if err != nil {
		return DiagramPayload{}, fmt.Errorf("get diagram: %w", err)
	}
	p.Document = doc
	return p, nil
}

func (s *PGStore) DeleteDiagram(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diagrams WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete diagram: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Revisions(ctx context.Context, ownerID, id string) ([]RevisionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.version, r.shape_count, octet_length(r.document::text), r.created_at
		FROM diagram_revisions r
		JOIN diagrams d ON d.id = r.diagram_id
		WHERE d.id = $1 AND d.owner_id = $2
		ORDER BY r.version DESC`, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	list := []RevisionInfo{}
	for rows.Next() {
		var r RevisionInfo
		if err := rows.Scan(&r.Version, &r.Shapes, &r.Size, &r.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
