/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(ts, kind, label, blob) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestRevisionSQL = `SELECT id, ts, kind, label, blob FROM revisions ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const selectLatestRevisionOfKindSQL = `SELECT id, ts, kind, label, blob FROM revisions WHERE kind = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const selectRevisionSQL = `SELECT id, ts, kind, label, blob FROM revisions WHERE id = ?`

// language=SQL
// dialect=SQLite
const listRevisionsSQL = `SELECT id, ts, kind, label, length(blob) FROM revisions ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneRevisionsSQL = `DELETE FROM revisions WHERE kind = ? AND id NOT IN (
	SELECT id FROM revisions WHERE kind = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// SaveRevision stores a serialized document and returns its id. A zero ts means now.
func (s *RevisionStore) SaveRevision(ctx context.Context, kind RevisionKind, label string, blob []byte, ts time.Time) (int64, error) {
	if len(blob) == 0 {
		return 0, errors.New("empty revision")
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := s.db.ExecContext(ctx, insertRevisionSQL, ts.UnixNano(), string(kind), label, blob)
	if err != nil {
		return 0, fmt.Errorf("insert revision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.log.Debug("revision saved", slog.String("op", "revision_save"), slog.Int64("id", id), slog.String("kind", string(kind)))
	return id, nil
}

// LatestRevision returns the newest revision of the given kind, or of any kind
// when kind is empty. ok is false when there is none.
func (s *RevisionStore) LatestRevision(ctx context.Context, kind RevisionKind) (rev Revision, ok bool, err error) {
	var row *sql.Row
	if kind == "" {
		row = s.db.QueryRowContext(ctx, selectLatestRevisionSQL)
	} else {
		row = s.db.QueryRowContext(ctx, selectLatestRevisionOfKindSQL, string(kind))
	}
	rev, err = scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, false, nil
	}
	if err != nil {
		return Revision{}, false, err
	}
	return rev, true, nil
}

// Revision returns one revision including its blob.
func (s *RevisionStore) Revision(ctx context.Context, id int64) (Revision, error) {
	rev, err := scanRevision(s.db.QueryRowContext(ctx, selectRevisionSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("revision %d: %w", id, ErrRevisionNotFound)
	}
	return rev, err
}

// ListRevisions returns up to limit revisions, newest first, without blobs.
func (s *RevisionStore) ListRevisions(ctx context.Context, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, listRevisionsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		var (
			r    Revision
			ts   int64
			kind string
		)
		if err := rows.Scan(&r.ID, &ts, &kind, &r.Label, &r.Size); err != nil {
			return nil, err
		}
		r.TS = time.Unix(0, ts)
		r.Kind = RevisionKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneRevisions keeps at most keepLast revisions of kind and deletes older ones.
func (s *RevisionStore) PruneRevisions(ctx context.Context, kind RevisionKind, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, pruneRevisionsSQL, string(kind), string(kind), keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanRevision(row *sql.Row) (Revision, error) {
	var (
		r    Revision
		ts   int64
		kind string
	)
	if err := row.Scan(&r.ID, &ts, &kind, &r.Label, &r.Blob); err != nil {
		return Revision{}, err
	}
	r.TS = time.Unix(0, ts)
	r.Kind = RevisionKind(kind)
	r.Size = len(r.Blob)
	return r, nil
}
