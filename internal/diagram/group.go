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
	"math"

	"godiagram/internal/vector"
)

// Group is a composite shape. Its anchor (X, Y) is the top-left corner of
// the children's union and every child keeps a fixed offset from it.
type Group struct {
	Base
	children []Shape
	offsets  []vector.Pt
}

// NewGroup groups children, anchoring at the top-left of their union.
func NewGroup(children []Shape) *Group {
	g := &Group{Base: newBase(KindGroup, 0, 0, 0, 0)}
	g.children = append([]Shape(nil), children...)
	g.recompute()
	return g
}

// Children returns the grouped shapes in z-order.
func (g *Group) Children() []Shape { return append([]Shape(nil), g.children...) }

// recompute derives the anchor, size and child offsets from current child positions.
func (g *Group) recompute() {
	g.offsets = g.offsets[:0]
	if len(g.children) == 0 {
		g.Width, g.Height = 0, 0
		return
	}
	u := g.children[0].Bounds()
	for _, c := range g.children[1:] {
		u = u.Union(c.Bounds())
	}
	g.X, g.Y, g.Width, g.Height = u.X, u.Y, u.W, u.H
	for _, c := range g.children {
		b := c.Bounds()
		g.offsets = append(g.offsets, vector.Pt{X: b.X - g.X, Y: b.Y - g.Y})
	}
}

// refresh recomputes nested groups bottom-up, then this group.
func (g *Group) refresh() {
	for _, c := range g.children {
		if sub, ok := c.(*Group); ok {
			sub.refresh()
		}
	}
	g.recompute()
}

// UpdateChildPositions places every child at anchor plus its offset.
func (g *Group) UpdateChildPositions() {
	for i, c := range g.children {
		MoveTo(c, g.X+g.offsets[i].X, g.Y+g.offsets[i].Y)
	}
}

// MoveBy re-derives the offsets from the live children first; connection
// resolution may have moved a grouped connector since the last recompute.
func (g *Group) MoveBy(dx, dy float64) {
	g.refresh()
	g.X += dx
	g.Y += dy
	g.UpdateChildPositions()
}

// Contains reports whether any child contains p.
func (g *Group) Contains(p vector.Pt) bool {
	for _, c := range g.children {
		if c.Contains(p) {
			return true
		}
	}
	return false
}

// ConnectionPoints is empty; connectors attach to the children instead.
func (g *Group) ConnectionPoints() []ConnectionPoint { return nil }

// Resize scales the children proportionally into the resized bounding box.
// Children keep the minimum size, so the group may end up larger than
// requested.
func (g *Group) Resize(h Handle, p vector.Pt) {
	g.refresh()
	old := g.Bounds()
	g.Base.Resize(h, p)
	nb := g.Bounds()
	if old.W == 0 || old.H == 0 {
		g.recompute()
		return
	}
	sx, sy := nb.W/old.W, nb.H/old.H
	for _, c := range g.children {
		scaleInto(c, old, nb, sx, sy)
	}
	g.recompute()
}

func scaleInto(s Shape, from, to vector.Rect, sx, sy float64) {
	mapPt := func(p vector.Pt) vector.Pt {
		return vector.Pt{X: to.X + (p.X-from.X)*sx, Y: to.Y + (p.Y-from.Y)*sy}
	}
	switch v := s.(type) {
	case *Connector:
		v.Start = mapPt(v.Start)
		v.End = mapPt(v.End)
		for i := range v.Waypoints {
			v.Waypoints[i] = mapPt(v.Waypoints[i])
		}
		v.UpdateBoundingBox()
	case *Group:
		for _, c := range v.children {
			scaleInto(c, from, to, sx, sy)
		}
		v.recompute()
	default:
		b := s.Geom()
		tl := mapPt(vector.Pt{X: b.X, Y: b.Y})
		b.X, b.Y = tl.X, tl.Y
		b.Width = math.Max(MinShapeSize, b.Width*sx)
		b.Height = math.Max(MinShapeSize, b.Height*sy)
	}
}

// Outline is the bounding rectangle; renderers draw the children instead.
func (g *Group) Outline() vector.Path { return vector.RectPath(g.Bounds()) }

// Record serializes the group with its children at absolute coordinates.
func (g *Group) Record() Record {
	rec := g.Base.Record()
	rec.Shapes = make([]Record, 0, len(g.children))
	for _, c := range g.children {
		rec.Shapes = append(rec.Shapes, c.Record())
	}
	return rec
}

// walk visits the group's descendants depth-first.
func (g *Group) walk(fn func(Shape)) {
	for _, c := range g.children {
		fn(c)
		if sub, ok := c.(*Group); ok {
			sub.walk(fn)
		}
	}
}
