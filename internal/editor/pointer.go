/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"
	"math"

	"godiagram/internal/diagram"
	"godiagram/internal/vector"
)

// Modifiers are the keys held during a pointer or key event.
// Ctrl also stands for Cmd on macOS.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

// Drawing defaults and gesture thresholds. Pixel values are screen space.
const (
	DefaultShapeWidth  = 120.0
	DefaultShapeHeight = 80.0
	minDrawSize        = 10.0
	minConnectorDrag   = 5.0
	minBoxSelect       = 5.0
)

type gestureKind uint8

const (
	gesturePan gestureKind = iota + 1
	gestureDrag
	gestureResize
	gestureBox
	gestureDraw
)

// gesture is the state of one press-move-release sequence.
type gesture struct {
	kind        gestureKind
	startScreen vector.Pt
	start       vector.Pt
	cur         vector.Pt
	panStart    vector.Pt

	// scene before the gesture, restored by Escape
	capture  []diagram.Record
	selected []diagram.ID
	moved    bool

	// drag
	primary diagram.Shape
	origins map[diagram.ID]vector.Pt

	// resize
	target diagram.Shape
	handle diagram.Handle

	// draw
	shape    diagram.Shape
	autoTool bool
}

// hover is what the pointer rests on while no button is pressed, or the
// snap target while drawing a connector.
type hover struct {
	snap      *diagram.Snap
	shape     diagram.Shape
	connector *diagram.Connector
}

// Busy reports whether a gesture is in progress.
func (e *Editor) Busy() bool { return e.g != nil }

func (e *Editor) docRadius(screen float64) float64 { return screen / e.view.Zoom }

func (e *Editor) snapRadius() float64 { return e.docRadius(e.cfg.ConnectionSnapDistance) }

func (e *Editor) capture(kind gestureKind, p vector.Pt) *gesture {
	g := &gesture{kind: kind, start: p, cur: p, capture: e.scene.Records()}
	for _, s := range e.scene.Selection() {
		g.selected = append(g.selected, s.ID())
	}
	return g
}

// PointerDown starts a gesture at screen position (x, y).
func (e *Editor) PointerDown(x, y float64, m Modifiers) {
	e.hover = hover{}
	e.g = nil
	p := e.view.ScreenToDocument(x, y)
	switch {
	case e.tool == ToolPan:
		e.g = &gesture{
			kind:        gesturePan,
			startScreen: vector.Pt{X: x, Y: y},
			panStart:    vector.Pt{X: e.view.PanX, Y: e.view.PanY},
		}
	case e.tool.Draws():
		k, _ := e.tool.Kind()
		e.beginDraw(k, p, false)
	default:
		e.selectDown(p, m)
	}
	e.notify.Redraw()
}

func (e *Editor) selectDown(p vector.Pt, m Modifiers) {
	sc := e.scene

	if m.Ctrl {
		if c, ok := sc.ShapeAt(p).(*diagram.Connector); ok {
			c.AddWaypointAt(p)
			sc.Select(c)
			e.selectionChanged()
			e.commit("add waypoint")
			return
		}
	}

	if sn, ok := sc.FindNearestConnectionPoint(p, e.snapRadius(), nil); ok &&
		diagram.IsNearConnectionPoint(p, sn.Point, e.docRadius(diagram.ConnectionHoverRange)) {
		e.beginDraw(diagram.KindArrow, p, true)
		return
	}

	if c, which, ok := sc.ConnectorEndpointAt(p, e.docRadius(diagram.EndpointHitRadius)); ok {
		sc.Select(c)
		e.selectionChanged()
		g := e.capture(gestureResize, p)
		g.target = c
		g.handle = c.Handles()[0]
		if which == diagram.HandleEnd {
			g.handle = c.Handles()[1]
		}
		e.g = g
		return
	}

	if prim := sc.Primary(); prim != nil {
		if h, ok := diagram.HandleAt(prim, p); ok {
			g := e.capture(gestureResize, p)
			g.target = prim
			g.handle = h
			e.g = g
			return
		}
	}

	if s := sc.ShapeAt(p); s != nil {
		if m.Shift {
			sc.ToggleSelection(s)
			e.selectionChanged()
			return
		}
		if !s.Selected() {
			sc.Select(s)
			e.selectionChanged()
		}
		g := e.capture(gestureDrag, p)
		g.primary = s
		g.origins = make(map[diagram.ID]vector.Pt)
		for _, sel := range sc.Selection() {
			g.origins[sel.ID()] = sel.Bounds().Min()
		}
		e.g = g
		return
	}

	if !m.Shift && len(sc.Selection()) > 0 {
		sc.ClearSelection()
		e.selectionChanged()
	}
	e.g = &gesture{kind: gestureBox, start: p, cur: p}
}

// beginDraw creates the shape being drawn. Connectors snap their start to
// a nearby connection point; boxes start at the default size so a plain
// click places a shape.
func (e *Editor) beginDraw(kind diagram.Kind, p vector.Pt, auto bool) {
	g := &gesture{kind: gestureDraw, start: p, cur: p, autoTool: auto}
	if kind.IsConnector() {
		start := p
		var conn *diagram.Connection
		if sn, ok := e.scene.FindNearestConnectionPoint(p, e.snapRadius(), nil); ok {
			start = sn.Point.Pt()
			conn = sn.Connection()
			e.hover.shape = sn.Shape
		}
		var c *diagram.Connector
		if kind == diagram.KindLine {
			c = diagram.NewLine(start.X, start.Y, start.X, start.Y)
		} else {
			c = diagram.NewArrow(start.X, start.Y, start.X, start.Y)
		}
		c.StartConnection = conn
		g.start = start
		g.shape = c
	} else {
		g.shape = diagram.NewShape(kind, p.X, p.Y, DefaultShapeWidth, DefaultShapeHeight)
	}
	e.g = g
}

// PointerMove advances the current gesture, or updates hover feedback
// when no gesture runs.
func (e *Editor) PointerMove(x, y float64, m Modifiers) {
	p := e.view.ScreenToDocument(x, y)
	g := e.g
	if g == nil {
		if k, ok := e.tool.Kind(); e.tool == ToolSelect || ok && k.IsConnector() {
			e.updateHover(p)
		}
		return
	}
	g.cur = p
	switch g.kind {
	case gesturePan:
		e.view.PanX = g.panStart.X + x - g.startScreen.X
		e.view.PanY = g.panStart.Y + y - g.startScreen.Y
	case gestureDrag:
		e.drag(g, p)
	case gestureResize:
		e.resize(g, p)
	case gestureDraw:
		e.updateDraw(g, p)
	case gestureBox:
	}
	e.notify.Redraw()
}

func (e *Editor) updateHover(p vector.Pt) {
	prev := e.hover
	e.hover = hover{}
	if sn, ok := e.scene.FindNearestConnectionPoint(p, e.snapRadius(), nil); ok &&
		diagram.IsNearConnectionPoint(p, sn.Point, e.docRadius(diagram.ConnectionHoverRange)) {
		e.hover.snap = &sn
		e.hover.shape = sn.Shape
	} else if e.tool == ToolSelect {
		if c, _, ok := e.scene.ConnectorEndpointAt(p, e.docRadius(diagram.EndpointHitRadius)); ok {
			e.hover.connector = c
		} else {
			e.hover.shape = e.scene.ShapeAt(p)
		}
	} else if s := e.scene.ShapeAt(p); s != nil && !diagram.IsConnector(s) {
		e.hover.shape = s
	}
	if prev.shape != e.hover.shape || prev.connector != e.hover.connector || (prev.snap == nil) != (e.hover.snap == nil) {
		e.notify.Redraw()
	}
}

// drag moves the primary shape to follow the pointer, applies grid and
// guideline snapping to it, and moves the rest of the selection by the
// primary's resulting offset.
func (e *Editor) drag(g *gesture, p vector.Pt) {
	prim := g.primary
	origin := g.origins[prim.ID()]
	target := origin.Add(p.Sub(g.start))
	connector := diagram.IsConnector(prim)
	if e.snapToGrid && !connector {
		target = vector.SnapToGrid(target, e.gridSize)
	}
	diagram.MoveTo(prim, target.X, target.Y)

	e.guides = nil
	if e.guidelinesEnabled && !connector {
		var anchors []vector.Rect
		for _, s := range e.scene.Shapes() {
			if s.Selected() || diagram.IsConnector(s) {
				continue
			}
			anchors = append(anchors, s.Bounds())
		}
		snapped, guides := vector.ComputeSmartGuides(prim.Bounds(), anchors, e.docRadius(e.cfg.SnapThreshold))
		diagram.MoveTo(prim, snapped.X, snapped.Y)
		e.guides = guides
	}

	applied := prim.Bounds().Min().Sub(origin)
	for _, s := range e.scene.Selection() {
		if s == prim {
			continue
		}
		o := g.origins[s.ID()].Add(applied)
		diagram.MoveTo(s, o.X, o.Y)
	}
	if applied != (vector.Pt{}) {
		g.moved = true
	}
	e.scene.UpdateAllConnections()
}

// resize drags a handle. Connector endpoints snap onto connection points
// and bind to them; released anywhere else they are unbound.
func (e *Editor) resize(g *gesture, p vector.Pt) {
	g.moved = true
	c, ok := g.target.(*diagram.Connector)
	if !ok {
		g.target.Resize(g.handle, p)
		e.scene.UpdateAllConnections()
		return
	}
	switch g.handle.Kind {
	case diagram.HandleStart, diagram.HandleEnd:
		var conn *diagram.Connection
		e.hover = hover{}
		if sn, ok := e.scene.FindNearestConnectionPoint(p, e.snapRadius(), c); ok {
			p = sn.Point.Pt()
			conn = sn.Connection()
			e.hover.snap = &sn
			e.hover.shape = sn.Shape
		}
		if g.handle.Kind == diagram.HandleStart {
			c.StartConnection = conn
		} else {
			c.EndConnection = conn
		}
		c.Resize(g.handle, p)
	default:
		c.Resize(g.handle, p)
	}
}

func (e *Editor) updateDraw(g *gesture, p vector.Pt) {
	if c, ok := g.shape.(*diagram.Connector); ok {
		end := p
		e.hover = hover{}
		if sn, ok := e.scene.FindNearestConnectionPoint(p, e.snapRadius(), nil); ok {
			end = sn.Point.Pt()
			e.hover.snap = &sn
			e.hover.shape = sn.Shape
		}
		c.End = end
		c.UpdateBoundingBox()
		return
	}
	end := p
	if e.snapToGrid {
		end = vector.SnapToGrid(p, e.gridSize)
	}
	r := vector.Normalize(g.start, end)
	b := g.shape.Geom()
	b.X, b.Y, b.Width, b.Height = r.X, r.Y, r.W, r.H
}

// PointerUp finishes the gesture and commits its result.
func (e *Editor) PointerUp(x, y float64, m Modifiers) {
	g := e.g
	if g == nil {
		return
	}
	e.g = nil
	e.guides = nil
	e.hover = hover{}
	switch g.kind {
	case gestureDrag:
		if g.moved {
			e.commit("move")
		}
	case gestureResize:
		if g.moved {
			e.commit("resize")
		}
	case gestureBox:
		e.finishBox(g, m.Shift)
	case gestureDraw:
		e.finishDraw(g)
	case gesturePan:
	}
	e.notify.Redraw()
}

func (e *Editor) finishBox(g *gesture, add bool) {
	box := vector.Normalize(g.start, g.cur)
	limit := e.docRadius(minBoxSelect)
	if box.W < limit && box.H < limit {
		return
	}
	e.scene.BoxSelect(box, add)
	e.selectionChanged()
}

func (e *Editor) finishDraw(g *gesture) {
	l := e.log.With(slog.String("op", "draw"))
	shape := g.shape
	c, isConnector := shape.(*diagram.Connector)
	var ok bool
	if isConnector {
		d := c.End.Sub(c.Start)
		ok = math.Abs(d.X) > minConnectorDrag || math.Abs(d.Y) > minConnectorDrag
	} else {
		b := shape.Bounds()
		ok = b.W > minDrawSize && b.H > minDrawSize
	}
	if !ok {
		l.Debug("draw discarded", slog.String("kind", string(shape.Kind())))
		if g.autoTool {
			e.tool = ToolSelect
		}
		return
	}

	var created diagram.Shape
	if isConnector {
		if sn, found := e.scene.FindNearestConnectionPoint(c.End, e.snapRadius(), nil); found {
			c.End = sn.Point.Pt()
			c.EndConnection = sn.Connection()
		} else if c.StartConnection != nil {
			created = e.attachEndShape(c)
		}
		c.UpdateBoundingBox()
	}
	e.scene.AddShape(shape)
	if created != nil {
		e.scene.Select(created)
		e.notify.RequestTextEdit(created)
	} else {
		e.scene.Select(shape)
		if !isConnector {
			e.notify.RequestTextEdit(shape)
		}
	}
	e.selectionChanged()
	e.commit("draw " + string(shape.Kind()))
	e.tool = ToolSelect
}

// attachEndShape places a default rectangle centred on the free end of c,
// styled like the source shape, and binds the end to its closest
// connection point.
func (e *Editor) attachEndShape(c *diagram.Connector) diagram.Shape {
	r := diagram.NewRectangle(c.End.X-DefaultShapeWidth/2, c.End.Y-DefaultShapeHeight/2, DefaultShapeWidth, DefaultShapeHeight)
	if src, ok := e.scene.Lookup(c.StartConnection.ShapeID); ok && !diagram.IsConnector(src) {
		r.FillColor = src.Geom().FillColor
		r.StrokeColor = src.Geom().StrokeColor
	}
	e.scene.AddShape(r)
	best, bestDist := diagram.ConnectionPoint{}, math.Inf(1)
	for _, cp := range r.ConnectionPoints() {
		if d := vector.Dist(cp.Pt(), c.End); d < bestDist {
			best, bestDist = cp, d
		}
	}
	c.End = best.Pt()
	c.EndConnection = &diagram.Connection{ShapeID: r.ID(), Position: best.Position}
	return r
}

// DoubleClick removes a waypoint under the pointer of the selected
// connector, or asks for a text edit of the shape under the pointer.
func (e *Editor) DoubleClick(x, y float64) {
	if e.tool != ToolSelect || e.g != nil {
		return
	}
	p := e.view.ScreenToDocument(x, y)
	if c, ok := e.scene.Primary().(*diagram.Connector); ok {
		if h, hit := diagram.HandleAt(c, p); hit && h.Kind == diagram.HandleWaypoint {
			c.RemoveWaypoint(h.Index)
			e.commit("remove waypoint")
			return
		}
	}
	target := e.scene.ShapeAt(p)
	if target == nil {
		target = e.scene.Primary()
	}
	if target == nil {
		return
	}
	if !target.Selected() {
		e.scene.Select(target)
		e.selectionChanged()
	}
	e.notify.RequestTextEdit(target)
}

// Escape aborts a running gesture, restoring the scene as it was when the
// gesture started. Without a gesture it clears the selection and returns
// to the select tool.
func (e *Editor) Escape() {
	if e.g != nil {
		e.cancelGesture()
		e.notify.Redraw()
		return
	}
	e.scene.ClearSelection()
	e.tool = ToolSelect
	e.hover = hover{}
	e.selectionChanged()
	e.notify.Redraw()
}

func (e *Editor) cancelGesture() {
	g := e.g
	e.g = nil
	e.guides = nil
	e.hover = hover{}
	switch g.kind {
	case gesturePan:
		e.view.PanX, e.view.PanY = g.panStart.X, g.panStart.Y
	case gestureDraw:
		if g.autoTool {
			e.tool = ToolSelect
		}
	case gestureDrag, gestureResize:
		sc, err := diagram.SceneFromRecords(g.capture)
		if err != nil {
			e.log.Error("restore capture", slog.String("err", err.Error()))
			return
		}
		var sel []diagram.Shape
		for _, id := range g.selected {
			if s, ok := sc.Lookup(id); ok {
				sel = append(sel, s)
			}
		}
		sc.Select(sel...)
		e.scene = sc
		e.selectionChanged()
	case gestureBox:
	}
}
