/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"godiagram/internal/vector"
)

// Part is one painted path of a shape, in document coordinates with the
// shape's rotation already applied.
type Part struct {
	Path  vector.Path
	Paint vector.Paint
}

// Label is the text of a shape, centered in Box and rotated by Rotation
// degrees around the box center.
type Label struct {
	Text       string
	Box        vector.Rect
	FontSize   float64
	FontFamily string
	Color      vector.Color
	Rotation   float64
}

// LineHeight is the distance between baselines of consecutive label lines.
func (l Label) LineHeight() float64 { return l.FontSize * 1.2 }

// Parts returns the painted paths of s in drawing order. Groups yield the
// parts of their children.
func Parts(s Shape) []Part {
	b := s.Geom()
	paint := vector.Paint{
		Fill:        vector.MustColor(b.FillColor, vector.White),
		Stroke:      vector.MustColor(b.StrokeColor, vector.Black),
		StrokeWidth: b.StrokeWidth,
	}
	switch v := s.(type) {
	case *Group:
		var out []Part
		for _, c := range v.children {
			out = append(out, Parts(c)...)
		}
		return out
	case *Connector:
		line := paint
		line.Fill = vector.Transparent
		out := []Part{{Path: v.Outline(), Paint: line}}
		if head := v.Head(); !head.Empty() {
			out = append(out, Part{Path: head, Paint: vector.Paint{Fill: line.Stroke, Stroke: line.Stroke, StrokeWidth: line.StrokeWidth}})
		}
		return out
	}
	m := vector.RotateAbout(b.Center(), b.Rotation)
	out := []Part{{Path: s.Outline().Transform(m), Paint: paint}}
	if db, ok := s.(*Database); ok {
		out = append(out, Part{Path: db.Cap().Transform(m), Paint: paint})
	}
	return out
}

// Labels returns the non-empty labels of s and, for groups, its descendants.
func Labels(s Shape) []Label {
	if g, ok := s.(*Group); ok {
		var out []Label
		for _, c := range g.children {
			out = append(out, Labels(c)...)
		}
		return out
	}
	b := s.Geom()
	if b.Text == "" {
		return nil
	}
	return []Label{{
		Text:       b.Text,
		Box:        b.Bounds(),
		FontSize:   b.FontSize,
		FontFamily: b.FontFamily,
		Color:      vector.MustColor(b.TextColor, vector.Black),
		Rotation:   b.Rotation,
	}}
}
