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
	"bytes"
	"context"
	"log/slog"
	"time"

	"godiagram/internal/diagram"
	"godiagram/internal/editor"
	"godiagram/internal/export"
	applog "godiagram/internal/log"
	"godiagram/internal/storage"
)

// ThumbnailSize is the edge length of revision previews.
const ThumbnailSize = 160

// Autosaver records editor states as autosave revisions of one document.
// Unchanged states are skipped and old autosaves pruned to Keep.
type Autosaver struct {
	Store *storage.RevisionStore
	Keep  int

	last []byte
	log  *slog.Logger
}

func NewAutosaver(store *storage.RevisionStore, keep int) *Autosaver {
	return &Autosaver{Store: store, Keep: keep, log: applog.WithComponent("autosave")}
}

// Save stores the editor's document unless it equals the last saved one.
// It returns the new revision id, or 0 when nothing was written.
func (a *Autosaver) Save(ctx context.Context, ed *editor.Editor) (int64, error) {
	blob, err := ed.Marshal()
	if err != nil {
		return 0, err
	}
	if bytes.Equal(blob, a.last) {
		return 0, nil
	}
	id, err := a.Store.SaveRevision(ctx, storage.KindAutosave, "", blob, time.Time{})
	if err != nil {
		return 0, err
	}
	a.last = blob
	if a.Keep > 0 {
		if n, err := a.Store.PruneRevisions(ctx, storage.KindAutosave, a.Keep); err != nil {
			a.log.Warn("prune autosaves failed", slog.Any("err", err))
		} else if n > 0 {
			a.log.Debug("pruned autosaves", slog.Int64("n", n))
		}
	}
	sc := ed.Scene()
	if _, err := a.Store.ThumbnailOrCreate(ctx, id, ThumbnailSize, ThumbnailSize, func(context.Context) ([]byte, error) {
		return export.Thumbnail(sc, ThumbnailSize, ThumbnailSize, export.Options{})
	}); err != nil {
		a.log.Warn("thumbnail failed", slog.Int64("revision", id), slog.Any("err", err))
	}
	return id, nil
}

// Preview returns the PNG preview of a revision, rendering it from the
// stored document when it is not cached.
func Preview(ctx context.Context, store *storage.RevisionStore, id int64) ([]byte, error) {
	return store.ThumbnailOrCreate(ctx, id, ThumbnailSize, ThumbnailSize, func(ctx context.Context) ([]byte, error) {
		rev, err := store.Revision(ctx, id)
		if err != nil {
			return nil, err
		}
		sc, _, err := diagram.LoadScene(rev.Blob)
		if err != nil {
			return nil, err
		}
		return export.Thumbnail(sc, ThumbnailSize, ThumbnailSize, export.Options{})
	})
}
