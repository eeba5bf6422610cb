/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"godiagram/internal/diagram"
	"godiagram/internal/vector"
)

// sampleScene holds a red rectangle and an arrow whose head stays inside
// the rectangle's vertical extent, so the frame is (-10,-10,330,90).
func sampleScene() (*diagram.Scene, *diagram.Rectangle) {
	sc := diagram.NewScene()
	r := diagram.NewRectangle(10, 10, 100, 50)
	r.FillColor = "#ff0000"
	r.Text = "A<B"
	sc.AddShape(r)
	sc.AddShape(diagram.NewArrow(200, 30, 300, 30))
	sc.Select(r)
	return sc, r
}

func TestFrameAddsPadding(t *testing.T) {
	sc, _ := sampleScene()
	got := Frame(sc.Shapes(), Options{})
	want := vector.R(-10, -10, 330, 90)
	if got != want {
		t.Fatalf("frame: got %+v want %+v", got, want)
	}
}

func TestFrameZeroPaddingWhenSet(t *testing.T) {
	sc, _ := sampleScene()
	got := Frame(sc.Shapes(), Options{PaddingSet: true})
	if want := vector.R(10, 10, 290, 50); got != want {
		t.Fatalf("frame: got %+v want %+v", got, want)
	}
	got = Frame(sc.Shapes(), Options{Padding: -1, PaddingSet: true})
	if want := vector.R(-10, -10, 330, 90); got != want {
		t.Fatalf("negative padding should use default: got %+v", got)
	}
}

func TestFrameEmptyDocumentUsesFallback(t *testing.T) {
	got := Frame(nil, Options{})
	if want := vector.R(-20, -20, 840, 640); got != want {
		t.Fatalf("frame: got %+v want %+v", got, want)
	}
	got = Frame(nil, Options{Padding: 5, FallbackWidth: 100, FallbackHeight: 50})
	if want := vector.R(-5, -5, 110, 60); got != want {
		t.Fatalf("custom frame: got %+v want %+v", got, want)
	}
}

func TestFrameIncludesRotatedOutline(t *testing.T) {
	sc := diagram.NewScene()
	r := diagram.NewRectangle(0, 0, 100, 20)
	r.Rotation = 90
	sc.AddShape(r)
	f := Frame(sc.Shapes(), Options{Padding: 1})
	// rotated about (50,10) the rectangle spans y -40..60
	if f.Y > -40.5 || f.Y+f.H < 60.5 {
		t.Fatalf("rotated shape clipped: %+v", f)
	}
}

func TestWritePNG(t *testing.T) {
	sc, _ := sampleScene()
	var buf bytes.Buffer
	if err := WritePNG(&buf, sc, Options{}); err != nil {
		t.Fatalf("png: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 330 || b.Dy() != 90 {
		t.Fatalf("size: got %dx%d want 330x90", b.Dx(), b.Dy())
	}
	if c := nrgba(img, 0, 0); c.A != 0 {
		t.Fatalf("corner should be transparent, got %+v", c)
	}
	// rectangle interior away from the label
	if c := nrgba(img, 30, 25); c.R < 200 || c.G > 60 || c.A != 255 {
		t.Fatalf("expected red fill, got %+v", c)
	}
}

func TestWritePNGScale(t *testing.T) {
	sc, _ := sampleScene()
	var buf bytes.Buffer
	if err := WritePNG(&buf, sc, Options{Scale: 2}); err != nil {
		t.Fatalf("png: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 660 || cfg.Height != 180 {
		t.Fatalf("size: got %dx%d want 660x180", cfg.Width, cfg.Height)
	}
}

func TestWriteJPEGHasWhiteBackground(t *testing.T) {
	sc, _ := sampleScene()
	var buf bytes.Buffer
	if err := WriteJPEG(&buf, sc, Options{}); err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	img, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c := nrgba(img, 2, 2); c.R < 245 || c.G < 245 || c.B < 245 {
		t.Fatalf("expected white corner, got %+v", c)
	}
}

func TestWriteSVG(t *testing.T) {
	sc, _ := sampleScene()
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sc, Options{}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`width="330" height="90" viewBox="0 0 330 90"`,
		`<g transform="translate(10,10)">`,
		`fill="#ff0000" stroke="#333333" stroke-width="2"`,
		`A&lt;B</text>`,
		`text-anchor="middle"`,
		`</svg>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg missing %q:\n%s", want, out)
		}
	}
	// the connector line is unfilled, its head is filled with the stroke color
	if !strings.Contains(out, `<path d="M200 30 L300 30" fill="none"`) {
		t.Fatalf("connector path not found:\n%s", out)
	}
	if strings.Count(out, "<path ") != 3 {
		t.Fatalf("expected 3 paths (rect, line, head), got %d", strings.Count(out, "<path "))
	}
}

func TestWriteSVGRotatesLabels(t *testing.T) {
	sc, r := sampleScene()
	r.Rotation = 30
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sc, Options{}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	if !strings.Contains(buf.String(), `<g transform="rotate(30 60 35)">`) {
		t.Fatalf("label rotation missing:\n%s", buf.String())
	}
}

func TestWritePDF(t *testing.T) {
	sc, _ := sampleScene()
	var buf bytes.Buffer
	if err := WritePDF(&buf, sc, Options{Title: "sample"}); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", buf.Bytes()[:min(buf.Len(), 16)])
	}
	// 330px * 0.264583 = 87.31mm = 247.5pt
	if !bytes.Contains(buf.Bytes(), []byte("/MediaBox [0 0 247.50")) {
		t.Fatalf("unexpected media box")
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"png": FormatPNG, "JPG": FormatJPEG, ".jpeg": FormatJPEG, "svg": FormatSVG, " pdf ": FormatPDF}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("expected error for gif")
	}
	if FormatJPEG.Ext() != ".jpg" || FormatSVG.Ext() != ".svg" {
		t.Fatalf("unexpected extensions")
	}
}

func TestExportFileCreatesParents(t *testing.T) {
	sc, _ := sampleScene()
	out := filepath.Join(t.TempDir(), "nested", "out.svg")
	if err := ExportFile(out, FormatSVG, sc, Options{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("svg empty")
	}
}

func TestThumbnailFits(t *testing.T) {
	sc, _ := sampleScene()
	data, err := Thumbnail(sc, 64, 64, Options{})
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 64 || cfg.Height > 64 {
		t.Fatalf("thumbnail size %dx%d", cfg.Width, cfg.Height)
	}
	if _, err := Thumbnail(sc, 0, 10, Options{}); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func nrgba(img image.Image, x, y int) color.NRGBA {
	b := img.Bounds()
	return color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
}
