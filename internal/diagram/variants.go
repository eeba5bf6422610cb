/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"fmt"
	"math"

	"godiagram/internal/vector"
)

// Outline proportions.
const (
	DefaultCornerRadius = 15.0
	parallelogramSkew   = 0.15
	documentWave        = 0.1
	databaseCap         = 0.2
)

type Rectangle struct{ Base }

func NewRectangle(x, y, w, h float64) *Rectangle {
	return &Rectangle{Base: newBase(KindRectangle, x, y, w, h)}
}

type RoundedRectangle struct {
	Base
	Radius float64
}

func NewRoundedRectangle(x, y, w, h float64) *RoundedRectangle {
	return &RoundedRectangle{Base: newBase(KindRoundedRectangle, x, y, w, h), Radius: DefaultCornerRadius}
}

func (r *RoundedRectangle) Outline() vector.Path {
	return vector.RoundedRectPath(r.Bounds(), r.Radius)
}

func (r *RoundedRectangle) Record() Record {
	rec := r.Base.Record()
	rec.CornerRadius = r.Radius
	return rec
}

// Circle is inscribed in its bounding box; the radius follows the shorter side.
type Circle struct{ Base }

func NewCircle(x, y, w, h float64) *Circle {
	return &Circle{Base: newBase(KindCircle, x, y, w, h)}
}

func (c *Circle) Radius() float64 { return math.Min(c.Width, c.Height) / 2 }

func (c *Circle) Contains(p vector.Pt) bool {
	ctr, r := c.Center(), c.Radius()
	dx, dy := p.X-ctr.X, p.Y-ctr.Y
	return dx*dx+dy*dy <= r*r
}

// ConnectionPoints lie on the perimeter every 45 degrees, tagged "<deg>deg".
func (c *Circle) ConnectionPoints() []ConnectionPoint {
	ctr, r := c.Center(), c.Radius()
	pts := make([]ConnectionPoint, 0, 8)
	for deg := 0; deg < 360; deg += 45 {
		rad := float64(deg) * math.Pi / 180
		pts = append(pts, ConnectionPoint{
			X:        ctr.X + r*math.Cos(rad),
			Y:        ctr.Y + r*math.Sin(rad),
			Position: fmt.Sprintf("%ddeg", deg),
		})
	}
	return pts
}

func (c *Circle) Handles() []Handle {
	ctr, r := c.Center(), c.Radius()
	d := r * 0.707
	return []Handle{
		resizeHandle(ctr.X, ctr.Y-r, "n"),
		resizeHandle(ctr.X+d, ctr.Y-d, "ne"),
		resizeHandle(ctr.X+r, ctr.Y, "e"),
		resizeHandle(ctr.X+d, ctr.Y+d, "se"),
		resizeHandle(ctr.X, ctr.Y+r, "s"),
		resizeHandle(ctr.X-d, ctr.Y+d, "sw"),
		resizeHandle(ctr.X-r, ctr.Y, "w"),
		resizeHandle(ctr.X-d, ctr.Y-d, "nw"),
	}
}

func (c *Circle) Outline() vector.Path {
	r := c.Radius()
	return vector.EllipsePath(c.Center(), r, r)
}

type Diamond struct{ Base }

func NewDiamond(x, y, w, h float64) *Diamond {
	return &Diamond{Base: newBase(KindDiamond, x, y, w, h)}
}

func (d *Diamond) Contains(p vector.Pt) bool {
	if d.Width <= 0 || d.Height <= 0 {
		return false
	}
	ctr := d.Center()
	dx, dy := math.Abs(p.X-ctr.X), math.Abs(p.Y-ctr.Y)
	return dx/(d.Width/2)+dy/(d.Height/2) <= 1
}

// ConnectionPoints are the four vertices followed by the four edge midpoints.
func (d *Diamond) ConnectionPoints() []ConnectionPoint {
	ctr := d.Center()
	hw, hh := d.Width/2, d.Height/2
	return []ConnectionPoint{
		{ctr.X, d.Y, "top"},
		{d.X + d.Width, ctr.Y, "right"},
		{ctr.X, d.Y + d.Height, "bottom"},
		{d.X, ctr.Y, "left"},
		{ctr.X + hw/2, ctr.Y - hh/2, "top-right"},
		{ctr.X + hw/2, ctr.Y + hh/2, "bottom-right"},
		{ctr.X - hw/2, ctr.Y + hh/2, "bottom-left"},
		{ctr.X - hw/2, ctr.Y - hh/2, "top-left"},
	}
}

func (d *Diamond) Handles() []Handle {
	ctr := d.Center()
	ox, oy := d.Width*0.35, d.Height*0.35
	return []Handle{
		resizeHandle(ctr.X, d.Y, "n"),
		resizeHandle(ctr.X+ox, ctr.Y-oy, "ne"),
		resizeHandle(d.X+d.Width, ctr.Y, "e"),
		resizeHandle(ctr.X+ox, ctr.Y+oy, "se"),
		resizeHandle(ctr.X, d.Y+d.Height, "s"),
		resizeHandle(ctr.X-ox, ctr.Y+oy, "sw"),
		resizeHandle(d.X, ctr.Y, "w"),
		resizeHandle(ctr.X-ox, ctr.Y-oy, "nw"),
	}
}

func (d *Diamond) Outline() vector.Path {
	ctr := d.Center()
	return vector.PolygonPath(
		vector.Pt{X: ctr.X, Y: d.Y},
		vector.Pt{X: d.X + d.Width, Y: ctr.Y},
		vector.Pt{X: ctr.X, Y: d.Y + d.Height},
		vector.Pt{X: d.X, Y: ctr.Y},
	)
}

type Parallelogram struct{ Base }

func NewParallelogram(x, y, w, h float64) *Parallelogram {
	return &Parallelogram{Base: newBase(KindParallelogram, x, y, w, h)}
}

func (p *Parallelogram) Outline() vector.Path {
	skew := p.Width * parallelogramSkew
	return vector.PolygonPath(
		vector.Pt{X: p.X + skew, Y: p.Y},
		vector.Pt{X: p.X + p.Width, Y: p.Y},
		vector.Pt{X: p.X + p.Width - skew, Y: p.Y + p.Height},
		vector.Pt{X: p.X, Y: p.Y + p.Height},
	)
}

// DocumentShape is the flowchart document symbol: a rectangle with a wavy bottom edge.
type DocumentShape struct{ Base }

func NewDocumentShape(x, y, w, h float64) *DocumentShape {
	return &DocumentShape{Base: newBase(KindDocument, x, y, w, h)}
}

func (d *DocumentShape) Outline() vector.Path {
	wave := d.Height * documentWave
	x, y, w, h := d.X, d.Y, d.Width, d.Height
	var p vector.Path
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h-wave)
	p.QuadTo(x+w*0.75, y+h-wave*2, x+w/2, y+h-wave)
	p.QuadTo(x+w*0.25, y+h, x, y+h-wave)
	p.Close()
	return p
}

// Database is a cylinder: a filled top cap, two sides and a bottom arc.
type Database struct{ Base }

func NewDatabase(x, y, w, h float64) *Database {
	return &Database{Base: newBase(KindDatabase, x, y, w, h)}
}

func (d *Database) capHeight() float64 { return d.Height * databaseCap }

// Outline is the silhouette of the cylinder.
func (d *Database) Outline() vector.Path {
	ch := d.capHeight()
	x, y, w, h := d.X, d.Y, d.Width, d.Height
	rx, ry := w/2, ch/2
	const k = 0.5522847498
	var p vector.Path
	p.MoveTo(x, y+ry)
	p.CubicTo(x, y+ry-ry*k, x+rx-rx*k, y, x+rx, y)
	p.CubicTo(x+rx+rx*k, y, x+w, y+ry-ry*k, x+w, y+ry)
	p.LineTo(x+w, y+h-ry)
	p.CubicTo(x+w, y+h-ry+ry*k, x+rx+rx*k, y+h, x+rx, y+h)
	p.CubicTo(x+rx-rx*k, y+h, x, y+h-ry+ry*k, x, y+h-ry)
	p.Close()
	return p
}

// Cap is the full top ellipse drawn over the body.
func (d *Database) Cap() vector.Path {
	ch := d.capHeight()
	return vector.EllipsePath(vector.Pt{X: d.X + d.Width/2, Y: d.Y + ch/2}, d.Width/2, ch/2)
}

// TextBox is a rectangle that paints nothing but its text by default.
type TextBox struct{ Base }

func NewTextBox(x, y, w, h float64) *TextBox {
	t := &TextBox{Base: newBase(KindTextBox, x, y, w, h)}
	t.FillColor = vector.TransparentName
	t.StrokeColor = vector.TransparentName
	t.StrokeWidth = 0
	return t
}

// NewShape creates a box-like shape of the given kind. Connectors and groups
// have their own constructors; for those and unknown kinds a Rectangle is returned.
func NewShape(kind Kind, x, y, w, h float64) Shape {
	switch kind {
	case KindRoundedRectangle:
		return NewRoundedRectangle(x, y, w, h)
	case KindCircle:
		return NewCircle(x, y, w, h)
	case KindDiamond:
		return NewDiamond(x, y, w, h)
	case KindParallelogram:
		return NewParallelogram(x, y, w, h)
	case KindDocument:
		return NewDocumentShape(x, y, w, h)
	case KindDatabase:
		return NewDatabase(x, y, w, h)
	case KindTextBox:
		return NewTextBox(x, y, w, h)
	default:
		return NewRectangle(x, y, w, h)
	}
}
