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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	applog "godiagram/internal/log"
)

// SaveCrashSnapshot writes data next to the document's backups as
// <name>.<stamp>.crash.json and records it as a crash revision. The file is
// what counts; a failing revision store is only logged.
func SaveCrashSnapshot(ctx context.Context, docPath string, data []byte) (string, error) {
	if docPath == "" {
		return "", errors.New("document path is required")
	}
	if len(data) == 0 {
		return "", errors.New("empty crash snapshot")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "crash_snapshot")
	bdir := BackupsDir(docPath)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.%s.crash.json", DocName(docPath), time.Now().Format(backupStamp)))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}

	store, err := OpenRevisionStore(docPath)
	if err != nil {
		l.Warn("crash revision skipped", slog.Any("err", err))
		return path, nil
	}
	defer func() { _ = store.Close() }()
	if _, err := store.SaveRevision(ctx, KindCrash, "crash", data, time.Time{}); err != nil {
		l.Warn("crash revision failed", slog.Any("err", err))
	}
	return path, nil
}
