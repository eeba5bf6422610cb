/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// lastJSONLine decodes the last non-empty line of b.
func lastJSONLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var last []byte
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if line := bytes.TrimSpace(sc.Bytes()); len(line) > 0 {
			last = append(last[:0], line...)
		}
	}
	if last == nil {
		t.Fatalf("no log lines in %q", b)
	}
	var m map[string]any
	if err := json.Unmarshal(last, &m); err != nil {
		t.Fatalf("unmarshal %q: %v", last, err)
	}
	return m
}

// TestFileAndConsoleReceiveEnrichedRecords checks that a record reaches the
// rotated file and the console with static, component and document fields.
func TestFileAndConsoleReceiveEnrichedRecords(t *testing.T) {
	// lumberjack keeps the file open, so use the shared temp dir rather than
	// t.TempDir which Windows cannot remove while the handle lives.
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("gdg_log_%d.json", time.Now().UnixNano()))
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "json", File: fpath, Console: &console})
	t.Cleanup(func() { Init(Options{Level: "info"}) })

	ctx := WithDocument(context.Background(), "/work/flow.gdg.json")
	WithOperation(WithComponent("storage"), "save").InfoContext(ctx, "document saved", slog.Int("shapes", 3))
	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for name, m := range map[string]map[string]any{"file": lastJSONLine(t, b), "console": lastJSONLine(t, console.Bytes())} {
		want := map[string]any{
			"app":       "godiagram",
			"component": "storage",
			"op":        "save",
			"doc":       "/work/flow.gdg.json",
			"msg":       "document saved",
			"shapes":    float64(3),
		}
		for k, v := range want {
			if m[k] != v {
				t.Fatalf("%s: %s = %v, want %v (record %v)", name, k, m[k], v, m)
			}
		}
		if _, ok := m["ver"].(string); !ok {
			t.Fatalf("%s: missing ver attr", name)
		}
	}
}

func TestParseLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Format: "json", Console: &buf})
	t.Cleanup(func() { Init(Options{Level: "info"}) })

	L().Info("dropped")
	L().Warn("kept")
	if bytes.Contains(buf.Bytes(), []byte("dropped")) || !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Fatalf("level filter not applied: %s", buf.String())
	}
}
