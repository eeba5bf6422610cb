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
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"

	"godiagram/internal/diagram"
	"godiagram/internal/textlayout"
	"godiagram/internal/vector"
)

// Painter draws shapes onto a gg context. The desktop canvas uses it with
// its view transform; the raster exporters with the frame offset.
type Painter struct {
	Fonts textlayout.Provider
	// Scale multiplies stroke widths. gg does not run line widths through
	// the context matrix.
	Scale float64
}

func (p Painter) scale() float64 {
	if p.Scale <= 0 {
		return 1
	}
	return p.Scale
}

// DrawShapes paints shapes back to front.
func (p Painter) DrawShapes(dc *gg.Context, shapes []diagram.Shape) {
	for _, s := range shapes {
		p.DrawShape(dc, s)
	}
}

// DrawShape paints the outline parts of s followed by its labels.
func (p Painter) DrawShape(dc *gg.Context, s diagram.Shape) {
	for _, part := range diagram.Parts(s) {
		p.DrawPath(dc, part.Path, part.Paint)
	}
	for _, l := range diagram.Labels(s) {
		p.DrawLabel(dc, l)
	}
}

// DrawPath fills and then strokes path.
func (p Painter) DrawPath(dc *gg.Context, path vector.Path, paint vector.Paint) {
	if path.Empty() {
		return
	}
	if paint.HasFill() {
		TracePath(dc, path)
		dc.SetColor(paint.Fill)
		dc.Fill()
	}
	if paint.HasStroke() {
		TracePath(dc, path)
		dc.SetColor(paint.Stroke)
		dc.SetLineWidth(paint.StrokeWidth * p.scale())
		dc.SetLineJoin(gg.LineJoinRound)
		if paint.Dashed {
			dc.SetDash(5*p.scale(), 5*p.scale())
		}
		dc.Stroke()
		dc.SetDash()
	}
}

// DrawLabel draws the wrapped text of l centered in its box.
func (p Painter) DrawLabel(dc *gg.Context, l diagram.Label) {
	spec := textlayout.FontSpec{Family: l.FontFamily, Size: l.FontSize}
	face, _ := p.fonts().Resolve(spec)
	block := textlayout.Center(p.fonts(), spec, l.Text, l.Box)
	dc.Push()
	defer dc.Pop()
	if l.Rotation != 0 {
		c := l.Box.Center()
		dc.RotateAbout(gg.Radians(l.Rotation), c.X, c.Y)
	}
	dc.SetFontFace(face)
	dc.SetColor(l.Color)
	for _, line := range block.Lines {
		dc.DrawStringAnchored(line.Text, line.Center.X, block.Baseline(line.Center.Y), 0.5, 0)
	}
}

func (p Painter) fonts() textlayout.Provider {
	if p.Fonts == nil {
		return textlayout.Default()
	}
	return p.Fonts
}

// TracePath replays path as the current gg path.
func TracePath(dc *gg.Context, path vector.Path) {
	dc.NewSubPath()
	for _, c := range path.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			dc.MoveTo(d[0], d[1])
		case vector.LineTo:
			dc.LineTo(d[0], d[1])
		case vector.QuadTo:
			dc.QuadraticTo(d[0], d[1], d[2], d[3])
		case vector.CubicTo:
			dc.CubicTo(d[0], d[1], d[2], d[3], d[4], d[5])
		case vector.Close:
			dc.ClosePath()
		}
	}
}

// RenderImage rasterizes the export frame of sc. A transparent background
// leaves uncovered pixels transparent.
func RenderImage(sc *diagram.Scene, opt Options, background vector.Color) (image.Image, vector.Rect) {
	opt = opt.withDefaults()
	shapes := sc.Shapes()
	frame := Frame(shapes, opt)
	w := pixels(frame.W * opt.Scale)
	h := pixels(frame.H * opt.Scale)
	dc := gg.NewContext(max(w, 1), max(h, 1))
	if !background.IsTransparent() {
		dc.SetColor(background)
		dc.Clear()
	}
	dc.Scale(opt.Scale, opt.Scale)
	dc.Translate(-frame.X, -frame.Y)
	Painter{Fonts: opt.Fonts, Scale: opt.Scale}.DrawShapes(dc, shapes)
	return dc.Image(), frame
}

// pixels rounds a size up, ignoring float noise from fitted scales.
func pixels(v float64) int { return int(math.Ceil(v - 1e-6)) }

// WritePNG encodes the frame losslessly with a transparent background.
func WritePNG(w io.Writer, sc *diagram.Scene, opt Options) error {
	img, _ := RenderImage(sc, opt, vector.Transparent)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WriteJPEG encodes the frame on white at the configured quality.
func WriteJPEG(w io.Writer, sc *diagram.Scene, opt Options) error {
	opt = opt.withDefaults()
	img, _ := RenderImage(sc, opt, vector.White)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: opt.JPEGQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

// Thumbnail renders sc on white so that it fits into maxW x maxH pixels.
func Thumbnail(sc *diagram.Scene, maxW, maxH int, opt Options) ([]byte, error) {
	if maxW <= 0 || maxH <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %dx%d", maxW, maxH)
	}
	opt = opt.withDefaults()
	frame := Frame(sc.Shapes(), opt)
	opt.Scale = math.Min(float64(maxW)/frame.W, float64(maxH)/frame.H)
	img, _ := RenderImage(sc, opt, vector.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
