/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"godiagram/internal/diagram"
	"godiagram/internal/export"
	"godiagram/internal/storage"
)

// openDocument loads the document at path and registers it for crash snapshots.
func (c *cli) openDocument(path string) (*storage.DocumentHandle, *diagram.Scene, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	h, err := storage.Open(abs)
	if err != nil {
		return nil, nil, err
	}
	sc, err := diagram.SceneFromRecords(h.Doc.Shapes)
	if err != nil {
		return nil, nil, err
	}
	c.target.Path = h.Path
	c.target.Marshal = func() ([]byte, error) { return storage.EncodeDocument(h.Doc) }
	if h.FromBackup != "" {
		fmt.Fprintln(c.out, warnStyle.Render("document was damaged; loaded backup "+filepath.Base(h.FromBackup)))
	}
	return h, sc, nil
}

func (c *cli) exportOptions(title string) export.Options {
	return export.Options{
		Padding:        c.cfg.Export.Padding,
		PaddingSet:     true,
		JPEGQuality:    c.cfg.Export.JPEGQuality,
		FallbackWidth:  c.cfg.Export.FallbackWidth,
		FallbackHeight: c.cfg.Export.FallbackHeight,
		Title:          title,
	}
}

func (c *cli) cmdNew(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("new requires <file>: %w", errUsage)
	}
	path := args[0]
	if !strings.HasSuffix(path, storage.DocumentExt) && filepath.Ext(path) == "" {
		path += storage.DocumentExt
	}
	abs, _ := filepath.Abs(path)
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("%s already exists", abs)
	}
	doc := diagram.NewDocument()
	doc.GridEnabled = c.cfg.Editor.GridEnabled
	doc.GridSize = c.cfg.Editor.GridSize
	doc.SnapToGrid = c.cfg.Editor.SnapToGrid
	doc.GuidelinesEnabled = c.cfg.Editor.GuidelinesEnabled
	if _, err := storage.Create(abs, doc); err != nil {
		return err
	}
	c.log.Info("document created", slog.String("path", abs))
	fmt.Fprintln(c.out, "Created diagram at", abs)
	return nil
}

func (c *cli) cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info requires <file>: %w", errUsage)
	}
	h, sc, err := c.openDocument(args[0])
	if err != nil {
		return err
	}
	counts := map[diagram.Kind]int{}
	for _, s := range sc.AllShapes() {
		counts[s.Kind()]++
	}
	kinds := make([]string, 0, len(counts))
	for k, n := range counts {
		kinds = append(kinds, fmt.Sprintf("%s %d", k, n))
	}
	sort.Strings(kinds)

	row := func(k, v string) { fmt.Fprintln(c.out, keyStyle.Render(k)+v) }
	fmt.Fprintln(c.out, titleStyle.Render(storage.DocName(h.Path)))
	row("Path", h.Path)
	row("Shapes", strconv.Itoa(sc.Len()))
	if len(kinds) > 0 {
		row("Kinds", strings.Join(kinds, ", "))
	}
	if r, ok := diagram.ContentBounds(sc.Shapes()); ok {
		row("Bounds", fmt.Sprintf("%.0f,%.0f %.0fx%.0f", r.X, r.Y, r.W, r.H))
	}
	row("Zoom", strconv.FormatFloat(h.Doc.Zoom, 'f', -1, 64))
	row("Grid", fmt.Sprintf("%v (size %.0f, snap %v)", h.Doc.GridEnabled, h.Doc.GridSize, h.Doc.SnapToGrid))
	if data, err := os.ReadFile(h.Path); err == nil {
		if err := storage.ValidateDocument(data); err != nil {
			row("Schema", warnStyle.Render(err.Error()))
		} else {
			row("Schema", "ok")
		}
	}
	return nil
}

func (c *cli) cmdExport(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("export requires <file>: %w", errUsage)
	}
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("format", c.cfg.Export.DefaultFormat, "png, jpeg, svg or pdf")
	out := fs.String("out", "", "output path")
	scale := fs.Float64("scale", 1, "raster scale factor")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%v: %w", err, errUsage)
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	h, sc, err := c.openDocument(args[0])
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = filepath.Join(filepath.Dir(h.Path), storage.DocName(h.Path)+f.Ext())
	}
	opt := c.exportOptions(storage.DocName(h.Path))
	opt.Scale = *scale
	if err := export.ExportFile(path, f, sc, opt); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Exported", path)
	return nil
}

func (c *cli) cmdBatch(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("batch requires <file> and <preset>: %w", errUsage)
	}
	preset, err := export.ParsePreset(args[1])
	if err != nil {
		return err
	}
	h, sc, err := c.openDocument(args[0])
	if err != nil {
		return err
	}
	files, err := export.BatchExport(h.Path, sc, export.BatchOptions{
		Preset:  preset,
		Options: c.exportOptions(storage.DocName(h.Path)),
	})
	for _, f := range files {
		fmt.Fprintln(c.out, "Exported", f)
	}
	return err
}

func (c *cli) cmdHistory(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("history requires <file>: %w", errUsage)
	}
	h, _, err := c.openDocument(args[0])
	if err != nil {
		return err
	}
	rs, err := storage.OpenRevisionStore(h.Path)
	if err != nil {
		return err
	}
	defer func() { _ = rs.Close() }()
	ctx := context.Background()

	if len(args) == 1 {
		revs, err := rs.ListRevisions(ctx, 50)
		if err != nil {
			return err
		}
		if len(revs) == 0 {
			fmt.Fprintln(c.out, dimStyle.Render("no revisions"))
			return nil
		}
		for _, r := range revs {
			fmt.Fprintf(c.out, "%s %s %-10s %6d B  %s\n",
				keyStyle.Width(6).Render(strconv.FormatInt(r.ID, 10)),
				r.TS.Format("2006-01-02 15:04:05"), r.Kind, r.Size, r.Label)
		}
		return nil
	}

	switch args[1] {
	case "checkpoint":
		label := strings.Join(args[2:], " ")
		blob, err := storage.EncodeDocument(h.Doc)
		if err != nil {
			return err
		}
		id, err := rs.SaveRevision(ctx, storage.KindCheckpoint, label, blob, time.Time{})
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Recorded checkpoint", id)
		return nil
	case "restore":
		if len(args) < 3 {
			return fmt.Errorf("history restore requires <id>: %w", errUsage)
		}
		id, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid revision id %q", args[2])
		}
		rev, err := rs.Revision(ctx, id)
		if err != nil {
			return err
		}
		doc, err := diagram.ParseDocument(rev.Blob)
		if err != nil {
			return fmt.Errorf("revision %d: %w", id, err)
		}
		// keep the state being replaced
		if cur, err := storage.EncodeDocument(h.Doc); err == nil {
			if _, err := rs.SaveRevision(ctx, storage.KindCheckpoint, fmt.Sprintf("before restore %d", id), cur, time.Time{}); err != nil {
				return err
			}
		}
		h.Doc = doc
		if err := storage.Save(h); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Restored revision %d into %s\n", id, h.Path)
		return nil
	}
	return fmt.Errorf("unknown history action %q: %w", args[1], errUsage)
}
