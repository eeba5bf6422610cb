/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"errors"
	"testing"

	"godiagram/internal/vector"
)

func threeRects() (*Scene, *Rectangle, *Rectangle, *Rectangle) {
	sc := NewScene()
	a := NewRectangle(0, 0, 50, 50)
	b := NewRectangle(100, 0, 50, 50)
	c := NewRectangle(300, 300, 50, 50)
	sc.AddShape(a)
	sc.AddShape(b)
	sc.AddShape(c)
	return sc, a, b, c
}

func TestBoxSelectTwoOfThree(t *testing.T) {
	sc, a, b, c := threeRects()
	if n := sc.BoxSelect(vector.R(-10, -10, 200, 100), false); n != 2 {
		t.Fatalf("expected 2 selected, got %d", n)
	}
	if !a.Selected() || !b.Selected() || c.Selected() {
		t.Fatalf("wrong selection: a=%v b=%v c=%v", a.Selected(), b.Selected(), c.Selected())
	}
	sc.BoxSelect(vector.R(290, 290, 100, 100), true)
	if len(sc.Selection()) != 3 {
		t.Fatalf("additive box select should keep previous members")
	}
	sc.BoxSelect(vector.R(290, 290, 100, 100), false)
	if len(sc.Selection()) != 1 || sc.Selection()[0] != c {
		t.Fatalf("replacing box select should only keep c")
	}
}

func TestBoxSelectConnectorNeedsPointInside(t *testing.T) {
	sc := NewScene()
	l := NewLine(0, 0, 200, 200)
	sc.AddShape(l)
	// the box overlaps the bbox but contains no point of the line
	if n := sc.BoxSelect(vector.R(150, 10, 40, 40), false); n != 0 {
		t.Fatalf("connector selected without a point inside")
	}
	if n := sc.BoxSelect(vector.R(190, 190, 20, 20), false); n != 1 {
		t.Fatalf("connector end inside box should select it")
	}
}

func TestToggleAndSelectAll(t *testing.T) {
	sc, a, b, _ := threeRects()
	sc.ToggleSelection(a)
	sc.ToggleSelection(b)
	if sc.Primary() != b {
		t.Fatalf("primary should be the last selected")
	}
	sc.ToggleSelection(a)
	if a.Selected() || len(sc.Selection()) != 1 {
		t.Fatalf("toggle should remove a")
	}
	sc.SelectAll()
	if len(sc.Selection()) != 3 {
		t.Fatalf("select all: %d", len(sc.Selection()))
	}
	if sc.ShapeAt(vector.Pt{X: 120, Y: 20}) != b {
		t.Fatalf("hit test should find b")
	}
}

func TestZOrderPreservesRelativeOrder(t *testing.T) {
	sc, a, b, c := threeRects()
	sc.Select(a, b)
	sc.BringToFront()
	got := sc.Shapes()
	if got[0] != c || got[1] != a || got[2] != b {
		t.Fatalf("bring to front order wrong")
	}
	sc.Select(b)
	sc.SendToBack()
	got = sc.Shapes()
	if got[0] != b || got[1] != c || got[2] != a {
		t.Fatalf("send to back order wrong")
	}
}

func TestDeleteSelected(t *testing.T) {
	sc, a, _, c := threeRects()
	sc.Select(a, c)
	if n := sc.DeleteSelected(); n != 2 || sc.Len() != 1 {
		t.Fatalf("delete: n=%d len=%d", n, sc.Len())
	}
	if _, ok := sc.Lookup(a.ID()); ok {
		t.Fatalf("deleted shape still indexed")
	}
	if len(sc.Selection()) != 0 {
		t.Fatalf("selection should be empty")
	}
}

func TestGroupUngroupRestoresPositions(t *testing.T) {
	sc, a, b, c := threeRects()
	sc.Select(a, b)
	g, err := sc.Group()
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if sc.Len() != 2 || sc.Shapes()[0] != g || sc.Shapes()[1] != c {
		t.Fatalf("group should take the slot of its topmost member")
	}
	if g.Bounds() != vector.R(0, 0, 150, 50) {
		t.Fatalf("group bounds: %+v", g.Bounds())
	}
	if _, ok := sc.Lookup(a.ID()); !ok {
		t.Fatalf("grouped children must stay addressable")
	}
	g.MoveBy(10, 20)
	if a.X != 10 || a.Y != 20 || b.X != 110 || b.Y != 20 {
		t.Fatalf("children did not follow: a=%+v b=%+v", a.Bounds(), b.Bounds())
	}
	g.MoveBy(-10, -20)
	children, err := sc.Ungroup()
	if err != nil {
		t.Fatalf("ungroup: %v", err)
	}
	if len(children) != 2 || a.Bounds() != vector.R(0, 0, 50, 50) || b.Bounds() != vector.R(100, 0, 50, 50) {
		t.Fatalf("positions not restored: %+v %+v", a.Bounds(), b.Bounds())
	}
	got := sc.Shapes()
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("ungroup should splice children in place")
	}
	if !a.Selected() || !b.Selected() {
		t.Fatalf("children should be selected after ungroup")
	}
}

func TestGroupErrors(t *testing.T) {
	sc, a, _, _ := threeRects()
	sc.Select(a)
	if _, err := sc.Group(); !errors.Is(err, ErrGroupNeedsTwo) {
		t.Fatalf("expected ErrGroupNeedsTwo, got %v", err)
	}
	if _, err := sc.Ungroup(); !errors.Is(err, ErrUngroupNeedsGroup) {
		t.Fatalf("expected ErrUngroupNeedsGroup, got %v", err)
	}
}

func TestGroupedConnectorTargetsResolve(t *testing.T) {
	sc := NewScene()
	r1 := NewRectangle(0, 0, 100, 100)
	r2 := NewRectangle(150, 0, 100, 100)
	free := NewRectangle(500, 0, 100, 100)
	a := NewArrow(600, 50, 250, 50)
	a.StartConnection = &Connection{ShapeID: free.ID(), Position: "left"}
	a.EndConnection = &Connection{ShapeID: r2.ID(), Position: "right"}
	for _, s := range []Shape{r1, r2, free, a} {
		sc.AddShape(s)
	}
	sc.UpdateAllConnections()
	sc.Select(r1, r2)
	g, err := sc.Group()
	if err != nil {
		t.Fatal(err)
	}
	g.MoveBy(0, 30)
	sc.UpdateAllConnections()
	if a.End != (vector.Pt{X: 250, Y: 80}) {
		t.Fatalf("end should follow grouped target: %+v", a.End)
	}
}

func TestGroupResizeScalesChildren(t *testing.T) {
	sc, a, b, _ := threeRects()
	sc.Select(a, b)
	g, _ := sc.Group()
	se := g.Handles()[4]
	g.Resize(se, vector.Pt{X: 300, Y: 100})
	if b.X != 200 || b.Width != 100 || b.Height != 100 {
		t.Fatalf("child not scaled: %+v", b.Bounds())
	}
	if g.Bounds() != vector.R(0, 0, 300, 100) {
		t.Fatalf("group bounds after resize: %+v", g.Bounds())
	}
}

func TestGroupResizeKeepsChildMinimum(t *testing.T) {
	sc := NewScene()
	a := NewRectangle(0, 0, 20, 20)
	b := NewRectangle(180, 180, 20, 20)
	sc.AddShape(a)
	sc.AddShape(b)
	sc.Select(a, b)
	g, err := sc.Group()
	if err != nil {
		t.Fatal(err)
	}
	g.Resize(g.Handles()[4], vector.Pt{X: 20, Y: 20})
	for _, c := range []*Rectangle{a, b} {
		if c.Width < MinShapeSize || c.Height < MinShapeSize {
			t.Fatalf("child shrunk below minimum: %+v", c.Bounds())
		}
	}
	if b.X != 18 || b.Y != 18 {
		t.Fatalf("child origin not scaled: %+v", b.Bounds())
	}
	if g.Bounds() != vector.R(0, 0, 38, 38) {
		t.Fatalf("group should envelope its children: %+v", g.Bounds())
	}
}

func TestGroupMovesConnectorAfterOutsideTargetMoved(t *testing.T) {
	sc := NewScene()
	r := NewRectangle(0, 0, 50, 50)
	outside := NewRectangle(400, 200, 100, 100)
	l := NewLine(0, 100, 450, 200)
	l.EndConnection = &Connection{ShapeID: outside.ID(), Position: "top"}
	for _, s := range []Shape{r, outside, l} {
		sc.AddShape(s)
	}
	sc.UpdateAllConnections()
	sc.Select(r, l)
	g, err := sc.Group()
	if err != nil {
		t.Fatal(err)
	}

	outside.MoveBy(-400, 0)
	sc.UpdateAllConnections()
	if l.End != (vector.Pt{X: 50, Y: 200}) {
		t.Fatalf("end did not follow target: %+v", l.End)
	}
	if g.Bounds() != vector.R(0, 0, 50, 200) {
		t.Fatalf("group bounds stale after resolution: %+v", g.Bounds())
	}

	g.MoveBy(10, 0)
	if l.Start != (vector.Pt{X: 10, Y: 100}) {
		t.Fatalf("free start should move with the group: %+v", l.Start)
	}
	if r.X != 10 || r.Y != 0 {
		t.Fatalf("rectangle moved wrongly: %+v", r.Bounds())
	}
}

func TestDuplicateOffsetsAndFreshIDs(t *testing.T) {
	sc := NewScene()
	r := NewRectangle(0, 0, 100, 100)
	ext := NewRectangle(400, 0, 100, 100)
	a := NewArrow(100, 50, 400, 50)
	a.StartConnection = &Connection{ShapeID: r.ID(), Position: "right"}
	a.EndConnection = &Connection{ShapeID: ext.ID(), Position: "left"}
	sc.AddShape(r)
	sc.AddShape(ext)
	sc.AddShape(a)
	sc.Select(r, a)
	clones, err := sc.Duplicate()
	if err != nil {
		t.Fatal(err)
	}
	if len(clones) != 2 || sc.Len() != 5 {
		t.Fatalf("duplicate count: %d len=%d", len(clones), sc.Len())
	}
	rc, ac := clones[0], clones[1].(*Connector)
	if rc.ID() == r.ID() || rc.Bounds() != vector.R(20, 20, 100, 100) {
		t.Fatalf("clone of r wrong: %s %+v", rc.ID(), rc.Bounds())
	}
	if ac.StartConnection == nil || ac.StartConnection.ShapeID != rc.ID() {
		t.Fatalf("connection inside the copied set should follow the clone: %+v", ac.StartConnection)
	}
	if ac.EndConnection != nil {
		t.Fatalf("connection leaving the copied set should be dropped")
	}
	if ac.End != (vector.Pt{X: 420, Y: 70}) {
		t.Fatalf("free end should be offset: %+v", ac.End)
	}
	if !rc.Selected() || r.Selected() {
		t.Fatalf("clones should be the new selection")
	}
}

func TestAlignLeftAndDistribute(t *testing.T) {
	sc := NewScene()
	a := NewRectangle(10, 0, 50, 50)
	b := NewRectangle(40, 100, 30, 50)
	c := NewRectangle(200, 200, 80, 50)
	sc.AddShape(a)
	sc.AddShape(b)
	sc.AddShape(c)
	sc.Select(a, b, c)
	if err := sc.Align(AlignLeft); err != nil {
		t.Fatal(err)
	}
	for _, s := range []*Rectangle{a, b, c} {
		if s.X != 10 {
			t.Fatalf("align left: x=%v", s.X)
		}
	}

	// distribute by top edges: bounds span 0..250, step 125
	if err := sc.Align(DistributeVertical); err != nil {
		t.Fatal(err)
	}
	if a.Y != 0 || c.Y != 200 || b.Y != 125 {
		t.Fatalf("distribute vertical: a=%v b=%v c=%v", a.Y, b.Y, c.Y)
	}
}

func TestDistributeHorizontalMiddle(t *testing.T) {
	sc := NewScene()
	a := NewRectangle(0, 0, 20, 20)
	b := NewRectangle(30, 0, 20, 20)
	c := NewRectangle(180, 0, 20, 20)
	sc.AddShape(a)
	sc.AddShape(b)
	sc.AddShape(c)
	sc.Select(c, a, b)
	if err := sc.Align(DistributeHorizontal); err != nil {
		t.Fatal(err)
	}
	// min 0, max 200: middle lands at 0 + (200-0)/2
	if b.X != 100 || a.X != 0 || c.X != 180 {
		t.Fatalf("distribute: a=%v b=%v c=%v", a.X, b.X, c.X)
	}
}

func TestAlignErrorsAndConnectorsIgnored(t *testing.T) {
	sc := NewScene()
	r := NewRectangle(50, 0, 10, 10)
	l := NewLine(0, 0, 10, 10)
	sc.AddShape(r)
	sc.AddShape(l)
	sc.Select(r, l)
	if err := sc.Align(AlignLeft); !errors.Is(err, ErrAlignNeedsTwo) {
		t.Fatalf("connectors must not count: %v", err)
	}
	r2 := NewRectangle(0, 50, 10, 10)
	sc.AddShape(r2)
	sc.Select(r, r2)
	if err := sc.Align(DistributeHorizontal); !errors.Is(err, ErrDistributeNeedsThree) {
		t.Fatalf("expected ErrDistributeNeedsThree, got %v", err)
	}
	if err := sc.Align("diagonal"); !errors.Is(err, ErrUnknownAlignMode) {
		t.Fatalf("expected ErrUnknownAlignMode, got %v", err)
	}
}
