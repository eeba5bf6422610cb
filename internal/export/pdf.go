/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"godiagram/internal/diagram"
	"godiagram/internal/textlayout"
	"godiagram/internal/vector"
)

const (
	// PxToMM converts document pixels (96 DPI) to millimetres.
	PxToMM = 0.264583
	// pxToPt converts font sizes; gofpdf takes them in points whatever the unit.
	pxToPt = 0.75
)

// WritePDF writes a single page sized to the export frame. Shapes are
// vector paths; labels use the core PDF fonts so nothing is embedded.
//
// Coordinates:
//   - Page origin is top-left, unit is mm.
//   - The frame origin maps to the page origin.
func WritePDF(w io.Writer, sc *diagram.Scene, opt Options) error {
	opt = opt.withDefaults()
	shapes := sc.Shapes()
	frame := Frame(shapes, opt)
	pageW, pageH := frame.W*PxToMM, frame.H*PxToMM

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
		OrientationStr: "P",
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("GoDiagram", false)
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.AddPage()
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(0, 0, pageW, pageH, "F")

	pw := pdfWriter{pdf: pdf, frame: frame, tr: pdf.UnicodeTranslatorFromDescriptor(""), fonts: opt.Fonts}
	for _, s := range shapes {
		for _, part := range diagram.Parts(s) {
			pw.path(part.Path, part.Paint)
		}
		for _, l := range diagram.Labels(s) {
			pw.label(l)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfWriter struct {
	pdf   *gofpdf.Fpdf
	frame vector.Rect
	tr    func(string) string
	fonts textlayout.Provider
}

func (pw pdfWriter) x(v float64) float64 { return (v - pw.frame.X) * PxToMM }
func (pw pdfWriter) y(v float64) float64 { return (v - pw.frame.Y) * PxToMM }

func (pw pdfWriter) trace(path vector.Path) {
	for _, c := range path.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			pw.pdf.MoveTo(pw.x(d[0]), pw.y(d[1]))
		case vector.LineTo:
			pw.pdf.LineTo(pw.x(d[0]), pw.y(d[1]))
		case vector.QuadTo:
			pw.pdf.CurveTo(pw.x(d[0]), pw.y(d[1]), pw.x(d[2]), pw.y(d[3]))
		case vector.CubicTo:
			pw.pdf.CurveBezierCubicTo(pw.x(d[0]), pw.y(d[1]), pw.x(d[2]), pw.y(d[3]), pw.x(d[4]), pw.y(d[5]))
		case vector.Close:
			pw.pdf.ClosePath()
		}
	}
}

// path fills and strokes separately so each can carry its own alpha.
func (pw pdfWriter) path(path vector.Path, paint vector.Paint) {
	if path.Empty() {
		return
	}
	if paint.HasFill() {
		pw.pdf.SetFillColor(int(paint.Fill.R), int(paint.Fill.G), int(paint.Fill.B))
		pw.alpha(paint.Fill.A)
		pw.trace(path)
		pw.pdf.DrawPath("F")
	}
	if paint.HasStroke() {
		pw.pdf.SetDrawColor(int(paint.Stroke.R), int(paint.Stroke.G), int(paint.Stroke.B))
		pw.pdf.SetLineWidth(paint.StrokeWidth * PxToMM)
		pw.pdf.SetLineJoinStyle("round")
		pw.alpha(paint.Stroke.A)
		pw.trace(path)
		pw.pdf.DrawPath("D")
	}
	pw.alpha(255)
}

func (pw pdfWriter) alpha(a uint8) {
	pw.pdf.SetAlpha(float64(a)/255, "Normal")
}

// label positions each line with the raster layout so line breaks match
// the PNG output; the core font's own width centers the line.
func (pw pdfWriter) label(l diagram.Label) {
	spec := textlayout.FontSpec{Family: l.FontFamily, Size: l.FontSize}
	block := textlayout.Center(pw.fonts, spec, l.Text, l.Box)
	if l.Rotation != 0 {
		c := l.Box.Center()
		pw.pdf.TransformBegin()
		// gofpdf rotates counter-clockwise
		pw.pdf.TransformRotate(-l.Rotation, pw.x(c.X), pw.y(c.Y))
		defer pw.pdf.TransformEnd()
	}
	pw.pdf.SetFont(pdfFamily(l.FontFamily), "", l.FontSize*pxToPt)
	pw.pdf.SetTextColor(int(l.Color.R), int(l.Color.G), int(l.Color.B))
	for _, line := range block.Lines {
		txt := pw.tr(line.Text)
		if strings.TrimSpace(txt) == "" {
			continue
		}
		width := pw.pdf.GetStringWidth(txt)
		pw.pdf.Text(pw.x(line.Center.X)-width/2, pw.y(block.Baseline(line.Center.Y)), txt)
	}
}

// pdfFamily maps a CSS-like family to one of the core PDF fonts.
func pdfFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"), strings.Contains(f, "consol"):
		return "Courier"
	case strings.Contains(f, "times"), strings.Contains(f, "georgia"), f == "serif":
		return "Times"
	default:
		return "Helvetica"
	}
}
