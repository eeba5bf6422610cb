/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Thumbnails are PNG previews of revisions, cached in the revision store and
// evicted least-recently-used once their total size exceeds the cap.

func ensureThumbnailsTable(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS thumbnails (
			revision_id INTEGER NOT NULL REFERENCES revisions(id) ON DELETE CASCADE,
			w           INTEGER NOT NULL,
			h           INTEGER NOT NULL,
			png         BLOB    NOT NULL,
			size        INTEGER NOT NULL,
			last_access INTEGER NOT NULL,
			PRIMARY KEY(revision_id, w, h)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_thumbnails_access ON thumbnails(last_access);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure thumbnails table: %w", err)
		}
	}
	return nil
}

// Thumbnail returns the cached preview of a revision at w×h, or nil when absent.
func (s *RevisionStore) Thumbnail(ctx context.Context, revisionID int64, w, h int) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT png FROM thumbnails WHERE revision_id=? AND w=? AND h=?`, revisionID, w, h).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query thumbnail: %w", err)
	}
	// touch
	_, _ = s.db.ExecContext(ctx, `UPDATE thumbnails SET last_access=? WHERE revision_id=? AND w=? AND h=?`, time.Now().UnixNano(), revisionID, w, h)
	return blob, nil
}

// PutThumbnail upserts a preview and enforces the cache size cap.
func (s *RevisionStore) PutThumbnail(ctx context.Context, revisionID int64, w, h int, png []byte) error {
	if len(png) == 0 {
		return errors.New("empty thumbnail")
	}
	now := time.Now().UnixNano()
	_, err := s.db.ExecContext(ctx, `INSERT INTO thumbnails(revision_id,w,h,png,size,last_access)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(revision_id,w,h) DO UPDATE SET png=excluded.png, size=excluded.size, last_access=excluded.last_access`,
		revisionID, w, h, png, len(png), now)
	if err != nil {
		return fmt.Errorf("upsert thumbnail: %w", err)
	}
	if capBytes := MaxThumbnailBytesFromEnv(); capBytes > 0 {
		return s.EvictThumbnailsToFit(ctx, capBytes)
	}
	return nil
}

// ThumbnailOrCreate fetches a preview or renders and stores it with gen.
func (s *RevisionStore) ThumbnailOrCreate(ctx context.Context, revisionID int64, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := s.Thumbnail(ctx, revisionID, w, h); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	if gen == nil {
		return nil, nil
	}
	data, err := gen(ctx)
	if err != nil || data == nil {
		return nil, err
	}
	if err := s.PutThumbnail(ctx, revisionID, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// EvictThumbnailsToFit deletes least-recently-used rows until the total size is <= capBytes.
func (s *RevisionStore) EvictThumbnailsToFit(ctx context.Context, capBytes int64) error {
	total, err := s.ThumbnailBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT rowid, size FROM thumbnails ORDER BY last_access ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for cur > capBytes && rows.Next() {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= sz
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// Close the cursor before writing
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM thumbnails WHERE rowid IN (` + strings.TrimSuffix(strings.Repeat("?,", len(victims)), ",") + `)`
	if _, err := s.db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// ThumbnailBytes returns the total size of cached previews.
func (s *RevisionStore) ThumbnailBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM thumbnails`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum thumbnails size: %w", err)
	}
	return total, nil
}

// MaxThumbnailBytesFromEnv reads GDG_THUMBNAILS_MAX_BYTES, defaulting to 32MB if unset.
func MaxThumbnailBytesFromEnv() int64 {
	const def = 32 * 1024 * 1024
	v := os.Getenv("GDG_THUMBNAILS_MAX_BYTES")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
