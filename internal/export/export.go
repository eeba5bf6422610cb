/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export writes the content of a scene to PNG, JPEG, SVG and PDF.
// Every encoding covers the same frame: the bounds of all shapes plus a
// padding margin. Selection decoration is never drawn.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"godiagram/internal/diagram"
	applog "godiagram/internal/log"
	"godiagram/internal/textlayout"
	"godiagram/internal/vector"
)

// Format is an export encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a format name or file extension ("jpg", ".PNG").
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "svg":
		return FormatSVG, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown export format: %q", s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Options tunes an export. Zero values select the defaults.
type Options struct {
	Padding        float64 // default 20 unless PaddingSet
	PaddingSet     bool    // use Padding as given, zero included
	Scale          float64 // raster pixels per document unit, default 1
	JPEGQuality    int     // default 95
	FallbackWidth  float64 // frame of an empty document, default 800x600
	FallbackHeight float64
	// Fonts resolves label fonts; nil uses the embedded Go fonts.
	Fonts textlayout.Provider
	// Title ends up in PDF metadata.
	Title string
}

const (
	DefaultPadding     = 20.0
	DefaultJPEGQuality = 95
)

func (o Options) withDefaults() Options {
	if o.Padding < 0 || (o.Padding == 0 && !o.PaddingSet) {
		o.Padding = DefaultPadding
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = DefaultJPEGQuality
	}
	if o.FallbackWidth <= 0 || o.FallbackHeight <= 0 {
		o.FallbackWidth, o.FallbackHeight = 800, 600
	}
	if o.Fonts == nil {
		o.Fonts = textlayout.Default()
	}
	return o
}

// Frame returns the exported area in document coordinates.
func Frame(shapes []diagram.Shape, opt Options) vector.Rect {
	opt = opt.withDefaults()
	r, ok := contentBounds(shapes)
	if !ok {
		r = vector.R(0, 0, opt.FallbackWidth, opt.FallbackHeight)
	}
	return r.Inset(-opt.Padding, -opt.Padding)
}

// contentBounds unions the painted outlines, so rotated shapes and arrow
// heads are not clipped. Connectors contribute all their vertices.
func contentBounds(shapes []diagram.Shape) (vector.Rect, bool) {
	var r vector.Rect
	found := false
	for _, s := range shapes {
		for _, part := range diagram.Parts(s) {
			if part.Path.Empty() {
				continue
			}
			b := part.Path.Bounds()
			if !found {
				r, found = b, true
				continue
			}
			r = r.Union(b)
		}
	}
	return r, found
}

// Write encodes sc in format f to w.
func Write(w io.Writer, f Format, sc *diagram.Scene, opt Options) error {
	switch f {
	case FormatPNG:
		return WritePNG(w, sc, opt)
	case FormatJPEG:
		return WriteJPEG(w, sc, opt)
	case FormatSVG:
		return WriteSVG(w, sc, opt)
	case FormatPDF:
		return WritePDF(w, sc, opt)
	}
	return fmt.Errorf("unknown export format: %q", f)
}

// ExportFile writes sc to path, creating parent folders as needed.
func ExportFile(path string, f Format, sc *diagram.Scene, opt Options) (err error) {
	if sc == nil {
		return fmt.Errorf("scene is nil")
	}
	l := applog.WithOperation(applog.WithComponent("export"), string(f)).With(slog.String("path", path))
	start := time.Now()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", f, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", f, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
			l.Error("export failed", slog.String("err", err.Error()))
			return
		}
		l.Info("exported", slog.Int("shapes", sc.Len()), slog.Duration("took", time.Since(start)))
	}()
	return Write(out, f, sc, opt)
}
