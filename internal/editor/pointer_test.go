/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"testing"

	"godiagram/internal/diagram"
	"godiagram/internal/vector"
)

var none = Modifiers{}

func click(e *Editor, x, y float64, m Modifiers) {
	e.PointerDown(x, y, m)
	e.PointerUp(x, y, m)
}

func dragTo(e *Editor, x0, y0, x1, y1 float64) {
	e.PointerDown(x0, y0, none)
	e.PointerMove(x1, y1, none)
	e.PointerUp(x1, y1, none)
}

func TestClickPlacesDefaultShape(t *testing.T) {
	e, rec := newTestEditor(t)
	e.SetTool(ToolCircle)
	click(e, 50, 60, none)
	if e.Scene().Len() != 1 {
		t.Fatalf("click should place a shape")
	}
	s := e.Scene().Shapes()[0]
	if s.Kind() != diagram.KindCircle || s.Bounds() != vector.R(50, 60, DefaultShapeWidth, DefaultShapeHeight) {
		t.Fatalf("placed %s at %+v", s.Kind(), s.Bounds())
	}
	if e.Tool() != ToolSelect || len(rec.edits) != 1 || rec.edits[0] != s {
		t.Fatalf("after drawing: tool=%s edits=%d", e.Tool(), len(rec.edits))
	}
}

func TestDrawDiscardedWhenTooSmall(t *testing.T) {
	e, _ := newTestEditor(t)
	e.SetTool(ToolRectangle)
	dragTo(e, 100, 100, 105, 300)
	e.SetTool(ToolLine)
	dragTo(e, 0, 0, 3, 4)
	if e.Scene().Len() != 0 || e.History().Len() != 1 {
		t.Fatalf("small draws must be discarded: shapes=%d history=%d", e.Scene().Len(), e.History().Len())
	}
}

func TestDrawSnapsEndToGrid(t *testing.T) {
	cfg := DefaultConfig()
	e := New(cfg, nil)
	e.SetTool(ToolRectangle)
	dragTo(e, 100, 100, 289, 251)
	if got := e.Scene().Shapes()[0].Bounds(); got != vector.R(100, 100, 180, 160) {
		t.Fatalf("grid snapped draw: %+v", got)
	}
}

func TestConnectorSnapsBetweenShapesAndFollows(t *testing.T) {
	e, rec := newTestEditor(t)
	r1 := diagram.NewRectangle(0, 0, 120, 80)
	r2 := diagram.NewRectangle(300, 0, 120, 80)
	e.Scene().AddShape(r1)
	e.Scene().AddShape(r2)

	e.SetTool(ToolArrow)
	e.PointerDown(121, 41, none)
	e.PointerMove(298, 42, none)
	if o := e.Overlay(); o.Drawing == nil || o.Active == nil || o.Active.Position != "left" {
		t.Fatalf("drawing overlay should show the snap target: %+v", o)
	}
	e.PointerUp(298, 42, none)

	a, ok := e.Scene().Primary().(*diagram.Connector)
	if !ok {
		t.Fatalf("the new arrow should be selected")
	}
	if a.Start != (vector.Pt{X: 120, Y: 40}) || a.End != (vector.Pt{X: 300, Y: 40}) {
		t.Fatalf("endpoints not snapped: %+v %+v", a.Start, a.End)
	}
	if a.StartConnection == nil || a.StartConnection.ShapeID != r1.ID() || a.EndConnection == nil || a.EndConnection.ShapeID != r2.ID() {
		t.Fatalf("connections: %+v %+v", a.StartConnection, a.EndConnection)
	}
	if len(rec.edits) != 0 {
		t.Fatalf("connectors do not open a text editor")
	}

	dragTo(e, 60, 40, 110, 40)
	if r1.X != 50 || a.Start != (vector.Pt{X: 170, Y: 40}) || a.End != (vector.Pt{X: 300, Y: 40}) {
		t.Fatalf("arrow should follow its source: r1=%v start=%+v end=%+v", r1.X, a.Start, a.End)
	}

	e.Undo()
	s := mustLookup(t, e, a.ID()).(*diagram.Connector)
	if s.Start != (vector.Pt{X: 120, Y: 40}) {
		t.Fatalf("undo should move the arrow back: %+v", s.Start)
	}
}

func TestConnectorFromConnectionPointCreatesTarget(t *testing.T) {
	e, rec := newTestEditor(t)
	src := diagram.NewRectangle(0, 0, 120, 80)
	src.FillColor = "#ff0000"
	e.Scene().AddShape(src)

	e.PointerDown(120, 40, none)
	e.PointerMove(400, 300, none)
	e.PointerUp(400, 300, none)

	shapes := e.Scene().Shapes()
	if len(shapes) != 3 {
		t.Fatalf("expected source, new target and arrow, got %d shapes", len(shapes))
	}
	target, arrow := shapes[1], shapes[2].(*diagram.Connector)
	if target.Bounds() != vector.R(340, 260, 120, 80) || target.Geom().FillColor != "#ff0000" {
		t.Fatalf("target shape: %+v fill=%s", target.Bounds(), target.Geom().FillColor)
	}
	if arrow.End != (vector.Pt{X: 400, Y: 260}) || arrow.EndConnection == nil || arrow.EndConnection.ShapeID != target.ID() || arrow.EndConnection.Position != "top" {
		t.Fatalf("arrow end not bound to target: %+v %+v", arrow.End, arrow.EndConnection)
	}
	if arrow.StartConnection == nil || arrow.StartConnection.ShapeID != src.ID() {
		t.Fatalf("arrow start not bound to source")
	}
	if e.Scene().Primary() != target || len(rec.edits) != 1 || rec.edits[0] != target {
		t.Fatalf("the new target should be selected for text entry")
	}
	if e.Tool() != ToolSelect {
		t.Fatalf("tool should stay select")
	}
}

func TestEndpointDragRebindsAndUnbinds(t *testing.T) {
	e, _ := newTestEditor(t)
	sc := e.Scene()
	r1 := diagram.NewRectangle(0, 0, 120, 80)
	r2 := diagram.NewRectangle(300, 0, 120, 80)
	a := diagram.NewArrow(120, 40, 300, 40)
	a.StartConnection = &diagram.Connection{ShapeID: r1.ID(), Position: "right"}
	a.EndConnection = &diagram.Connection{ShapeID: r2.ID(), Position: "left"}
	sc.AddShape(r1)
	sc.AddShape(r2)
	sc.AddShape(a)

	dragTo(e, 280, 40, 500, 500)
	if a.EndConnection != nil || a.End != (vector.Pt{X: 500, Y: 500}) {
		t.Fatalf("free drop should unbind: %+v %+v", a.End, a.EndConnection)
	}
	if a.StartConnection == nil {
		t.Fatalf("start binding must survive")
	}
	dragTo(e, 480, 480, 302, 42)
	if a.EndConnection == nil || a.EndConnection.ShapeID != r2.ID() || a.End != (vector.Pt{X: 300, Y: 40}) {
		t.Fatalf("drop near a connection point should rebind: %+v %+v", a.End, a.EndConnection)
	}
	if e.History().Len() != 3 {
		t.Fatalf("each endpoint drag commits once, history=%d", e.History().Len())
	}
}

func TestEscapeRestoresDrag(t *testing.T) {
	e, _ := newTestEditor(t)
	r := diagram.NewRectangle(0, 0, 100, 100)
	e.Scene().AddShape(r)

	e.PointerDown(50, 50, none)
	e.PointerMove(250, 250, none)
	if r.X != 200 {
		t.Fatalf("drag did not move the shape: %v", r.X)
	}
	e.Escape()
	if e.Busy() {
		t.Fatalf("escape should end the gesture")
	}
	got := mustLookup(t, e, r.ID())
	if got.Bounds() != vector.R(0, 0, 100, 100) || !got.Selected() {
		t.Fatalf("escape should restore the shape and its selection: %+v", got.Bounds())
	}
	if e.History().Len() != 1 {
		t.Fatalf("escape must not commit")
	}
	e.PointerUp(250, 250, none)
	if e.History().Len() != 1 {
		t.Fatalf("release after escape must not commit")
	}

	e.SetTool(ToolDiamond)
	e.Escape()
	if e.Tool() != ToolSelect || len(e.Scene().Selection()) != 0 {
		t.Fatalf("idle escape should clear selection and select the select tool")
	}
}

func TestMultiDragMovesByPrimaryDelta(t *testing.T) {
	e, _ := newTestEditor(t)
	a := diagram.NewRectangle(0, 0, 50, 50)
	b := diagram.NewRectangle(200, 200, 50, 50)
	e.Scene().AddShape(a)
	e.Scene().AddShape(b)
	e.SelectAll()

	dragTo(e, 25, 25, 75, 45)
	if a.Bounds().Min() != (vector.Pt{X: 50, Y: 20}) || b.Bounds().Min() != (vector.Pt{X: 250, Y: 220}) {
		t.Fatalf("multi drag: a=%+v b=%+v", a.Bounds(), b.Bounds())
	}
	if len(e.Scene().Selection()) != 2 {
		t.Fatalf("dragging a selected shape keeps the selection")
	}
}

func TestDragSnapsToGuides(t *testing.T) {
	cfg := plainConfig()
	cfg.GuidelinesEnabled = true
	e := New(cfg, nil)
	anchor := diagram.NewRectangle(0, 0, 100, 100)
	m := diagram.NewRectangle(300, 0, 100, 100)
	e.Scene().AddShape(anchor)
	e.Scene().AddShape(m)

	e.PointerDown(350, 50, none)
	e.PointerMove(155, 53, none)
	if m.Bounds().Min() != (vector.Pt{X: 100, Y: 0}) {
		t.Fatalf("guides should pull the shape onto the anchor edges: %+v", m.Bounds())
	}
	if len(e.Overlay().Guides) == 0 {
		t.Fatalf("guides should be shown during the drag")
	}
	e.PointerUp(155, 53, none)
	if len(e.Overlay().Guides) != 0 {
		t.Fatalf("guides are cleared on release")
	}
}

func TestBoxSelectThroughPointer(t *testing.T) {
	e, _ := newTestEditor(t)
	sc := e.Scene()
	sc.AddShape(diagram.NewRectangle(0, 0, 50, 50))
	sc.AddShape(diagram.NewRectangle(100, 0, 50, 50))
	sc.AddShape(diagram.NewRectangle(300, 300, 50, 50))

	e.PointerDown(-20, -20, none)
	e.PointerMove(200, 100, none)
	if e.Overlay().Box == nil {
		t.Fatalf("box should be visible while dragging")
	}
	e.PointerUp(200, 100, none)
	if len(sc.Selection()) != 2 {
		t.Fatalf("expected two selected, got %d", len(sc.Selection()))
	}

	dragTo(e, 400, 400, 402, 402)
	if len(sc.Selection()) != 0 {
		t.Fatalf("a tiny box is a click on empty space")
	}
}

func TestShiftClickTogglesWithoutDrag(t *testing.T) {
	e, _ := newTestEditor(t)
	a := diagram.NewRectangle(0, 0, 50, 50)
	b := diagram.NewRectangle(100, 0, 50, 50)
	e.Scene().AddShape(a)
	e.Scene().AddShape(b)

	click(e, 25, 25, none)
	e.PointerDown(125, 25, Modifiers{Shift: true})
	if e.Busy() {
		t.Fatalf("shift-click must not start a drag")
	}
	e.PointerUp(125, 25, Modifiers{Shift: true})
	if len(e.Scene().Selection()) != 2 || e.Scene().Primary() != b {
		t.Fatalf("shift-click should add b")
	}
	click(e, 25, 25, Modifiers{Shift: true})
	if a.Selected() || len(e.Scene().Selection()) != 1 {
		t.Fatalf("shift-click on a selected shape removes it")
	}
}

func TestPanToolMovesView(t *testing.T) {
	e, _ := newTestEditor(t)
	e.SetTool(ToolPan)
	dragTo(e, 10, 10, 60, 30)
	if v := e.View(); v.PanX != 50 || v.PanY != 20 {
		t.Fatalf("pan: %+v", v)
	}
	if e.History().Len() != 1 {
		t.Fatalf("panning is not an undoable change")
	}
}

func TestPointerUsesViewTransform(t *testing.T) {
	e, _ := newTestEditor(t)
	e.SetView(View{Zoom: 2, PanX: 100, PanY: 0})
	e.SetTool(ToolRectangle)
	dragTo(e, 100, 0, 300, 100)
	if got := e.Scene().Shapes()[0].Bounds(); got != vector.R(0, 0, 100, 50) {
		t.Fatalf("screen coordinates should map through the view: %+v", got)
	}
}

func TestCtrlClickAddsWaypoint(t *testing.T) {
	e, _ := newTestEditor(t)
	l := diagram.NewLine(0, 0, 200, 0)
	e.Scene().AddShape(l)
	click(e, 100, 3, Modifiers{Ctrl: true})
	if len(l.Waypoints) != 1 || l.Waypoints[0] != (vector.Pt{X: 100, Y: 0}) {
		t.Fatalf("waypoint: %+v", l.Waypoints)
	}
	if !l.Selected() || e.History().Len() != 2 {
		t.Fatalf("waypoint insertion selects and commits")
	}
	e.DoubleClick(100, 0)
	if len(l.Waypoints) != 0 || e.History().Len() != 3 {
		t.Fatalf("double-click on a waypoint removes it: %+v", l.Waypoints)
	}
}

func TestDoubleClickRequestsTextEdit(t *testing.T) {
	e, rec := newTestEditor(t)
	r := diagram.NewRectangle(0, 0, 100, 100)
	e.Scene().AddShape(r)
	e.DoubleClick(50, 50)
	if len(rec.edits) != 1 || rec.edits[0] != r || !r.Selected() {
		t.Fatalf("double-click should select and request an edit")
	}
	e.DoubleClick(500, 500)
	if len(rec.edits) != 2 {
		t.Fatalf("double-click on empty space edits the selected shape")
	}
}
