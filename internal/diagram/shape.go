/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package diagram holds the shape model of a diagram: the closed set of shape
// kinds, connectors with their connection bindings, groups, and the ordered
// scene that owns them. It has no knowledge of input devices or rendering
// backends; editors and exporters build on top of it.
package diagram

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/google/uuid"

	"godiagram/internal/vector"
)

// Kind names a shape variant. The value doubles as the "type" discriminator in documents.
type Kind string

const (
	KindRectangle        Kind = "Rectangle"
	KindRoundedRectangle Kind = "RoundedRectangle"
	KindCircle           Kind = "Circle"
	KindDiamond          Kind = "Diamond"
	KindParallelogram    Kind = "Parallelogram"
	KindDocument         Kind = "Document"
	KindDatabase         Kind = "Database"
	KindTextBox          Kind = "TextBox"
	KindArrow            Kind = "Arrow"
	KindLine             Kind = "Line"
	KindGroup            Kind = "Group"
)

// IsConnector reports whether shapes of this kind are defined by endpoints.
func (k Kind) IsConnector() bool { return k == KindArrow || k == KindLine }

// Geometry and style limits.
const (
	MinShapeSize   = 20.0
	MinFontSize    = 8.0
	MaxFontSize    = 72.0
	MaxStrokeWidth = 10.0
	// HandleSize is the half extent of a handle's hit box.
	HandleSize     = 8.0
)

// ID identifies a shape within a document.
type ID string

// NewID returns a fresh random identifier.
func NewID() ID { return ID(uuid.NewString()) }

// UnmarshalJSON accepts strings and, for older documents, plain numbers.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*id = ID(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// Style is the visual state shared by all shapes.
type Style struct {
	FillColor   string  `json:"fillColor"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	Text        string  `json:"text"`
	FontSize    float64 `json:"fontSize"`
	FontFamily  string  `json:"fontFamily"`
	TextColor   string  `json:"textColor"`
}

// DefaultStyle is the style of a freshly drawn shape.
func DefaultStyle() Style {
	return Style{
		FillColor:   "#ffffff",
		StrokeColor: "#333333",
		StrokeWidth: 2,
		FontSize:    14,
		FontFamily:  "Arial",
		TextColor:   "#000000",
	}
}

// Clamp keeps font size and stroke width within their legal ranges.
func (s *Style) Clamp() {
	s.FontSize = clamp(s.FontSize, MinFontSize, MaxFontSize)
	s.StrokeWidth = clamp(s.StrokeWidth, 0, MaxStrokeWidth)
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

// ConnectionPoint is a named attachment point on a shape's outline.
type ConnectionPoint struct {
	X, Y     float64
	Position string
}

// Pt returns the point's location.
func (c ConnectionPoint) Pt() vector.Pt { return vector.Pt{X: c.X, Y: c.Y} }

// HandleKind distinguishes what dragging a handle does.
type HandleKind uint8

const (
	HandleResize HandleKind = iota
	HandleStart
	HandleEnd
	HandleWaypoint
)

// Handle is a draggable control point of a selected shape.
// Dir is the compass direction of resize handles ("nw", "n", ...).
// Index is the waypoint index for HandleWaypoint.
type Handle struct {
	X, Y   float64
	Cursor string
	Dir    string
	Kind   HandleKind
	Index  int
}

// Hit reports whether p falls within the handle's hit box.
func (h Handle) Hit(p vector.Pt) bool {
	return p.X >= h.X-HandleSize && p.X <= h.X+HandleSize &&
		p.Y >= h.Y-HandleSize && p.Y <= h.Y+HandleSize
}

// Shape is implemented by every element of a scene.
type Shape interface {
	ID() ID
	Kind() Kind
	// Geom exposes the shared geometry and style for in-place edits.
	Geom() *Base
	Bounds() vector.Rect
	Contains(p vector.Pt) bool
	ConnectionPoints() []ConnectionPoint
	Handles() []Handle
	MoveBy(dx, dy float64)
	// Resize drags handle h to p.
	Resize(h Handle, p vector.Pt)
	// Outline is the unrotated shape path in document coordinates.
	Outline() vector.Path
	Selected() bool
	Record() Record
}

// Base carries the state common to all shapes. Variants embed it.
type Base struct {
	id   ID
	kind Kind

	X, Y, Width, Height float64
	// Rotation in degrees, applied around the center when rendering only.
	Rotation float64
	Style

	selected bool
}

func newBase(kind Kind, x, y, w, h float64) Base {
	return Base{id: NewID(), kind: kind, X: x, Y: y, Width: w, Height: h, Style: DefaultStyle()}
}

func (b *Base) ID() ID         { return b.id }
func (b *Base) Kind() Kind     { return b.kind }
func (b *Base) Geom() *Base    { return b }
func (b *Base) Selected() bool { return b.selected }

// Bounds returns the bounding box.
func (b *Base) Bounds() vector.Rect { return vector.R(b.X, b.Y, b.Width, b.Height) }

// Center returns the bounding box center.
func (b *Base) Center() vector.Pt { return b.Bounds().Center() }

// Contains is the bounding box test used by box-like shapes.
func (b *Base) Contains(p vector.Pt) bool { return b.Bounds().Contains(p) }

// MoveBy translates the shape.
func (b *Base) MoveBy(dx, dy float64) {
	b.X += dx
	b.Y += dy
}

// ConnectionPoints returns the four edge midpoints followed by the four corners.
func (b *Base) ConnectionPoints() []ConnectionPoint {
	x, y, w, h := b.X, b.Y, b.Width, b.Height
	return []ConnectionPoint{
		{x + w/2, y, "top"},
		{x + w, y + h/2, "right"},
		{x + w/2, y + h, "bottom"},
		{x, y + h/2, "left"},
		{x + w, y, "top-right"},
		{x, y, "top-left"},
		{x + w, y + h, "bottom-right"},
		{x, y + h, "bottom-left"},
	}
}

// Handles returns the eight bounding box resize handles, clockwise from top-left.
func (b *Base) Handles() []Handle {
	x, y, w, h := b.X, b.Y, b.Width, b.Height
	return []Handle{
		resizeHandle(x, y, "nw"),
		resizeHandle(x+w/2, y, "n"),
		resizeHandle(x+w, y, "ne"),
		resizeHandle(x+w, y+h/2, "e"),
		resizeHandle(x+w, y+h, "se"),
		resizeHandle(x+w/2, y+h, "s"),
		resizeHandle(x, y+h, "sw"),
		resizeHandle(x, y+h/2, "w"),
	}
}

func resizeHandle(x, y float64, dir string) Handle {
	return Handle{X: x, Y: y, Dir: dir, Cursor: dir + "-resize", Kind: HandleResize}
}

// Resize moves the edges named by the handle direction to p. Width and
// height never drop below MinShapeSize afterwards.
func (b *Base) Resize(h Handle, p vector.Pt) {
	if h.Kind != HandleResize {
		return
	}
	right, bottom := b.X+b.Width, b.Y+b.Height
	for _, c := range h.Dir {
		switch c {
		case 'n':
			b.Height = bottom - p.Y
			b.Y = p.Y
		case 's':
			b.Height = p.Y - b.Y
		case 'w':
			b.Width = right - p.X
			b.X = p.X
		case 'e':
			b.Width = p.X - b.X
		}
	}
	b.Width = math.Max(MinShapeSize, b.Width)
	b.Height = math.Max(MinShapeSize, b.Height)
}

// Outline is the bounding rectangle.
func (b *Base) Outline() vector.Path { return vector.RectPath(b.Bounds()) }

// Record serializes the common fields.
func (b *Base) Record() Record {
	return Record{
		Type:     b.kind,
		ID:       b.id,
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Height:   b.Height,
		Rotation: b.Rotation,
		Style:    b.Style,
	}
}

func (b *Base) apply(r Record) {
	if r.ID != "" {
		b.id = r.ID
	}
	b.X, b.Y, b.Width, b.Height = r.X, r.Y, r.Width, r.Height
	b.Rotation = r.Rotation
	b.Style = r.Style
	b.Style.Clamp()
}

// HandleAt returns the first handle of s whose hit box contains p.
func HandleAt(s Shape, p vector.Pt) (Handle, bool) {
	for _, h := range s.Handles() {
		if h.Hit(p) {
			return h, true
		}
	}
	return Handle{}, false
}

// ConnectionPointByPosition looks up a connection point by its tag.
func ConnectionPointByPosition(s Shape, position string) (ConnectionPoint, bool) {
	for _, cp := range s.ConnectionPoints() {
		if cp.Position == position {
			return cp, true
		}
	}
	return ConnectionPoint{}, false
}

// MoveTo positions the bounding box's top-left corner at (x, y).
func MoveTo(s Shape, x, y float64) {
	b := s.Bounds()
	s.MoveBy(x-b.X, y-b.Y)
}

// IsConnector reports whether s is an Arrow or a Line.
func IsConnector(s Shape) bool {
	_, ok := s.(*Connector)
	return ok
}
