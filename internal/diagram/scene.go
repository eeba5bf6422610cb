/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"godiagram/internal/vector"
)

// DuplicateOffset is how far duplicated and pasted shapes are shifted.
const DuplicateOffset = 20.0

// Scene owns the top-level shapes in z-order (last is topmost) and the
// current selection. Selected shapes are always top-level members.
type Scene struct {
	shapes    []Shape
	selection []Shape
	index     map[ID]Shape
}

func NewScene() *Scene {
	return &Scene{index: make(map[ID]Shape)}
}

// Shapes returns the top-level shapes bottom to top.
func (s *Scene) Shapes() []Shape { return append([]Shape(nil), s.shapes...) }

// Len is the number of top-level shapes.
func (s *Scene) Len() int { return len(s.shapes) }

// AllShapes returns the top-level shapes and, depth-first, every grouped descendant.
func (s *Scene) AllShapes() []Shape {
	out := make([]Shape, 0, len(s.shapes))
	for _, sh := range s.shapes {
		out = append(out, sh)
		if g, ok := sh.(*Group); ok {
			g.walk(func(c Shape) { out = append(out, c) })
		}
	}
	return out
}

// Lookup finds a shape by id, including shapes inside groups.
func (s *Scene) Lookup(id ID) (Shape, bool) {
	sh, ok := s.index[id]
	return sh, ok
}

func (s *Scene) reindex() {
	s.index = make(map[ID]Shape, len(s.shapes))
	for _, sh := range s.AllShapes() {
		s.index[sh.ID()] = sh
	}
}

// IndexOf returns the z-position of a top-level shape, or -1.
func (s *Scene) IndexOf(sh Shape) int {
	for i, x := range s.shapes {
		if x == sh {
			return i
		}
	}
	return -1
}

// AddShape appends sh on top.
func (s *Scene) AddShape(sh Shape) {
	s.shapes = append(s.shapes, sh)
	s.index[sh.ID()] = sh
	if g, ok := sh.(*Group); ok {
		g.walk(func(c Shape) { s.index[c.ID()] = c })
	}
}

// RemoveShape removes a top-level shape and deselects it.
func (s *Scene) RemoveShape(sh Shape) bool {
	i := s.IndexOf(sh)
	if i < 0 {
		return false
	}
	s.shapes = append(s.shapes[:i], s.shapes[i+1:]...)
	s.deselect(sh)
	s.reindex()
	return true
}

// Clear removes every shape.
func (s *Scene) Clear() {
	for _, sh := range s.selection {
		sh.Geom().selected = false
	}
	s.shapes = nil
	s.selection = nil
	s.index = make(map[ID]Shape)
}

// DeleteSelected removes every selected shape and returns how many were removed.
func (s *Scene) DeleteSelected() int {
	if len(s.selection) == 0 {
		return 0
	}
	n := len(s.selection)
	kept := s.shapes[:0]
	for _, sh := range s.shapes {
		if !sh.Selected() {
			kept = append(kept, sh)
		}
	}
	s.shapes = kept
	s.ClearSelection()
	s.reindex()
	return n
}

// Selection returns the selected shapes in selection order.
func (s *Scene) Selection() []Shape { return append([]Shape(nil), s.selection...) }

// Primary returns the most recently selected shape.
func (s *Scene) Primary() Shape {
	if len(s.selection) == 0 {
		return nil
	}
	return s.selection[len(s.selection)-1]
}

// Select replaces the selection with the given shapes.
func (s *Scene) Select(shapes ...Shape) {
	s.ClearSelection()
	for _, sh := range shapes {
		s.addToSelection(sh)
	}
}

// AddToSelection adds sh when it is a top-level shape that is not yet selected.
func (s *Scene) AddToSelection(sh Shape) { s.addToSelection(sh) }

func (s *Scene) addToSelection(sh Shape) {
	if sh == nil || sh.Selected() || s.IndexOf(sh) < 0 {
		return
	}
	sh.Geom().selected = true
	s.selection = append(s.selection, sh)
}

// ToggleSelection flips the membership of sh.
func (s *Scene) ToggleSelection(sh Shape) {
	if sh.Selected() {
		s.deselect(sh)
		return
	}
	s.addToSelection(sh)
}

func (s *Scene) deselect(sh Shape) {
	for i, x := range s.selection {
		if x == sh {
			s.selection = append(s.selection[:i], s.selection[i+1:]...)
			break
		}
	}
	sh.Geom().selected = false
}

// ClearSelection deselects everything.
func (s *Scene) ClearSelection() {
	for _, sh := range s.selection {
		sh.Geom().selected = false
	}
	s.selection = nil
}

// SelectAll selects every top-level shape in z-order.
func (s *Scene) SelectAll() { s.Select(s.shapes...) }

// selectedInOrder returns the selected shapes in z-order.
func (s *Scene) selectedInOrder() []Shape {
	var out []Shape
	for _, sh := range s.shapes {
		if sh.Selected() {
			out = append(out, sh)
		}
	}
	return out
}

// ShapeAt returns the topmost shape containing p.
func (s *Scene) ShapeAt(p vector.Pt) Shape {
	for i := len(s.shapes) - 1; i >= 0; i-- {
		if s.shapes[i].Contains(p) {
			return s.shapes[i]
		}
	}
	return nil
}

// BoxSelect selects the shapes touched by box. Connectors match when any of
// their points lies inside it, other shapes when their bounding boxes
// intersect it. Without add the previous selection is replaced.
func (s *Scene) BoxSelect(box vector.Rect, add bool) int {
	if !add {
		s.ClearSelection()
	}
	n := 0
	for _, sh := range s.shapes {
		if !boxHits(box, sh) {
			continue
		}
		if !sh.Selected() {
			s.addToSelection(sh)
			n++
		}
	}
	return n
}

func boxHits(box vector.Rect, sh Shape) bool {
	if c, ok := sh.(*Connector); ok {
		for _, p := range c.Points() {
			if box.Contains(p) {
				return true
			}
		}
		return false
	}
	return box.Intersects(sh.Bounds())
}

// BringToFront moves the selected shapes to the top keeping their relative order.
func (s *Scene) BringToFront() bool {
	sel := s.selectedInOrder()
	if len(sel) == 0 {
		return false
	}
	rest := make([]Shape, 0, len(s.shapes))
	for _, sh := range s.shapes {
		if !sh.Selected() {
			rest = append(rest, sh)
		}
	}
	s.shapes = append(rest, sel...)
	return true
}

// SendToBack moves the selected shapes to the bottom keeping their relative order.
func (s *Scene) SendToBack() bool {
	sel := s.selectedInOrder()
	if len(sel) == 0 {
		return false
	}
	out := append(make([]Shape, 0, len(s.shapes)), sel...)
	for _, sh := range s.shapes {
		if !sh.Selected() {
			out = append(out, sh)
		}
	}
	s.shapes = out
	return true
}

// Duplicate clones the selected shapes with fresh ids, shifted by
// DuplicateOffset, and selects the clones.
func (s *Scene) Duplicate() ([]Shape, error) {
	sel := s.selectedInOrder()
	if len(sel) == 0 {
		return nil, ErrNothingSelected
	}
	recs := make([]Record, 0, len(sel))
	for _, sh := range sel {
		recs = append(recs, sh.Record())
	}
	clones := s.Insert(CloneRecords(recs, DuplicateOffset, DuplicateOffset))
	return clones, nil
}

// Insert builds shapes from records, adds them on top, resolves
// connections and selects the new shapes.
func (s *Scene) Insert(recs []Record) []Shape {
	added := make([]Shape, 0, len(recs))
	for _, r := range recs {
		sh := FromRecord(r)
		s.AddShape(sh)
		added = append(added, sh)
	}
	s.UpdateAllConnections()
	s.Select(added...)
	return added
}

// Group replaces the selected shapes with a group placed at the z-slot of
// the topmost member. Children keep their z-order.
func (s *Scene) Group() (*Group, error) {
	sel := s.selectedInOrder()
	if len(sel) < 2 {
		return nil, ErrGroupNeedsTwo
	}
	top := s.IndexOf(sel[len(sel)-1])
	g := NewGroup(sel)
	out := make([]Shape, 0, len(s.shapes)-len(sel)+1)
	for i, sh := range s.shapes {
		if i == top {
			out = append(out, g)
		}
		if !sh.Selected() {
			out = append(out, sh)
		}
	}
	s.ClearSelection()
	s.shapes = out
	s.reindex()
	s.Select(g)
	return g, nil
}

// Ungroup splices the children of the single selected group back in at its
// z-slot and selects them.
func (s *Scene) Ungroup() ([]Shape, error) {
	if len(s.selection) != 1 {
		return nil, ErrUngroupNeedsGroup
	}
	g, ok := s.selection[0].(*Group)
	if !ok {
		return nil, ErrUngroupNeedsGroup
	}
	i := s.IndexOf(g)
	children := g.Children()
	out := make([]Shape, 0, len(s.shapes)-1+len(children))
	out = append(out, s.shapes[:i]...)
	out = append(out, children...)
	out = append(out, s.shapes[i+1:]...)
	s.ClearSelection()
	s.shapes = out
	s.reindex()
	s.Select(children...)
	return children, nil
}

// Records serializes all top-level shapes in z-order.
func (s *Scene) Records() []Record {
	recs := make([]Record, 0, len(s.shapes))
	for _, sh := range s.shapes {
		recs = append(recs, sh.Record())
	}
	return recs
}

// SelectedRecords serializes the selected shapes in z-order.
func (s *Scene) SelectedRecords() []Record {
	var recs []Record
	for _, sh := range s.selectedInOrder() {
		recs = append(recs, sh.Record())
	}
	return recs
}

// CloneRecords deep-copies recs with fresh ids, shifted by (dx, dy).
// Connections between cloned shapes follow the new ids; connections to
// shapes outside the set are dropped.
func CloneRecords(recs []Record, dx, dy float64) []Record {
	ids := make(map[ID]ID)
	var collect func(rs []Record)
	collect = func(rs []Record) {
		for _, r := range rs {
			ids[r.ID] = NewID()
			collect(r.Shapes)
		}
	}
	collect(recs)

	var clone func(r Record) Record
	clone = func(r Record) Record {
		out := r
		out.ID = ids[r.ID]
		out.X += dx
		out.Y += dy
		if cr := r.ConnectorRecord; cr != nil {
			c := *cr
			c.X1, c.Y1 = c.X1+dx, c.Y1+dy
			c.X2, c.Y2 = c.X2+dx, c.Y2+dy
			c.Waypoints = make([]Point, 0, len(cr.Waypoints))
			for _, wp := range cr.Waypoints {
				c.Waypoints = append(c.Waypoints, Point{X: wp.X + dx, Y: wp.Y + dy})
			}
			c.StartConnection = remap(cr.StartConnection, ids)
			c.EndConnection = remap(cr.EndConnection, ids)
			out.ConnectorRecord = &c
		}
		if len(r.Shapes) > 0 {
			out.Shapes = make([]Record, 0, len(r.Shapes))
			for _, child := range r.Shapes {
				out.Shapes = append(out.Shapes, clone(child))
			}
		}
		return out
	}
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, clone(r))
	}
	return out
}

func remap(c *Connection, ids map[ID]ID) *Connection {
	if c == nil {
		return nil
	}
	nid, ok := ids[c.ShapeID]
	if !ok {
		return nil
	}
	return &Connection{ShapeID: nid, Position: c.Position}
}
