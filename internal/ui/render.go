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
	"image"
	"math"

	"github.com/fogleman/gg"

	"godiagram/internal/diagram"
	"godiagram/internal/editor"
	"godiagram/internal/export"
	"godiagram/internal/textlayout"
	"godiagram/internal/vector"
)

// Overlay colors.
var (
	gridColor      = vector.Color{R: 200, G: 200, B: 200, A: 77}
	guideColor     = vector.Color{R: 255, G: 0, B: 255, A: 255}
	accentColor    = vector.Color{R: 102, G: 126, B: 234, A: 255}
	boxFillColor   = vector.Color{R: 102, G: 126, B: 234, A: 26}
	highlightColor = vector.Color{R: 16, G: 185, B: 129, A: 255}
)

const (
	handleSize  = 8.0
	pointRadius = 4.0
)

// Renderer paints an editor's scene and its interaction overlay.
type Renderer struct {
	Fonts      textlayout.Provider
	Background vector.Color
}

// Render draws the editor state into a w×h pixel image. pixelScale is the
// ratio of pixels to logical screen units, e.g. 2 on a HiDPI display.
func (r Renderer) Render(ed *editor.Editor, w, h int, pixelScale float64) *image.RGBA {
	if pixelScale <= 0 {
		pixelScale = 1
	}
	dc := gg.NewContext(max(w, 1), max(h, 1))
	bg := r.Background
	if bg == (vector.Color{}) {
		bg = vector.White
	}
	dc.SetColor(bg)
	dc.Clear()

	v := ed.View()
	dc.Scale(pixelScale, pixelScale)
	dc.Translate(v.PanX, v.PanY)
	dc.Scale(v.Zoom, v.Zoom)

	// doc is the stroke factor for widths given in document units, px the
	// factor for widths that stay constant on screen.
	px := pixelScale
	doc := pixelScale * v.Zoom
	visible := vector.Normalize(
		v.ScreenToDocument(0, 0),
		v.ScreenToDocument(float64(w)/pixelScale, float64(h)/pixelScale),
	)
	o := ed.Overlay()
	painter := export.Painter{Fonts: r.Fonts, Scale: doc}

	if o.GridSize > 0 {
		drawGrid(dc, visible, o.GridSize, px)
	}
	painter.DrawShapes(dc, ed.Scene().Shapes())
	if o.Drawing != nil {
		painter.DrawShape(dc, o.Drawing)
	}
	if o.Highlight != nil {
		for _, part := range diagram.Parts(o.Highlight) {
			export.TracePath(dc, part.Path)
			dc.SetColor(highlightColor)
			dc.SetLineWidth(3 * doc)
			dc.Stroke()
		}
	}
	for _, g := range o.Guides {
		if g.Orientation == "vertical" {
			dc.DrawLine(g.Position, visible.Y, g.Position, visible.Y+visible.H)
		} else {
			dc.DrawLine(visible.X, g.Position, visible.X+visible.W, g.Position)
		}
		dc.SetColor(guideColor)
		dc.SetLineWidth(px)
		dc.SetDash(5*px, 5*px)
		dc.Stroke()
		dc.SetDash()
	}
	for _, hd := range o.Handles {
		dc.DrawRectangle(hd.X-handleSize/2, hd.Y-handleSize/2, handleSize, handleSize)
		fillStroke(dc, accentColor, vector.White, 2*doc)
	}
	for _, cp := range o.Points {
		dc.DrawCircle(cp.X, cp.Y, pointRadius)
		fillStroke(dc, accentColor, vector.White, 2*doc)
	}
	if o.Active != nil {
		dc.DrawCircle(o.Active.X, o.Active.Y, pointRadius+2)
		fillStroke(dc, highlightColor, vector.White, 2*doc)
	}
	if o.Box != nil {
		b := *o.Box
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		dc.SetColor(boxFillColor)
		dc.FillPreserve()
		dc.SetColor(accentColor)
		dc.SetLineWidth(2 * px)
		dc.SetDash(5*px, 5*px)
		dc.Stroke()
		dc.SetDash()
	}
	return dc.Image().(*image.RGBA)
}

func fillStroke(dc *gg.Context, fill, stroke vector.Color, width float64) {
	dc.SetColor(fill)
	dc.FillPreserve()
	dc.SetColor(stroke)
	dc.SetLineWidth(width)
	dc.Stroke()
}

// drawGrid strokes grid lines covering the visible document area.
func drawGrid(dc *gg.Context, visible vector.Rect, size, px float64) {
	startX := math.Floor(visible.X/size) * size
	startY := math.Floor(visible.Y/size) * size
	endX := visible.X + visible.W + size
	endY := visible.Y + visible.H + size
	for x := startX; x <= endX; x += size {
		dc.MoveTo(x, startY)
		dc.LineTo(x, endY)
	}
	for y := startY; y <= endY; y += size {
		dc.MoveTo(startX, y)
		dc.LineTo(endX, y)
	}
	dc.SetColor(gridColor)
	dc.SetLineWidth(px)
	dc.Stroke()
}
