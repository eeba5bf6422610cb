/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"godiagram/internal/diagram"
	"godiagram/internal/vector"
)

// Overlay is the transient decoration painted above the scene. All
// coordinates are document space.
type Overlay struct {
	// GridSize is the grid spacing, 0 when the grid is hidden.
	GridSize float64
	Guides   []vector.GuideLine
	// Box is the pending box-select rectangle.
	Box *vector.Rect
	// Drawing is the shape being drawn; it is not part of the scene yet.
	Drawing diagram.Shape
	Handles []diagram.Handle
	// Points are the connection points offered for attaching a connector.
	Points []diagram.ConnectionPoint
	// Active is the connection point a connector end would snap to.
	Active *diagram.ConnectionPoint
	// Highlight is the shape or connector under the pointer.
	Highlight diagram.Shape
}

// Overlay returns the decoration for the current interaction state.
func (e *Editor) Overlay() Overlay {
	o := Overlay{Guides: e.guides}
	if e.gridEnabled {
		o.GridSize = e.gridSize
	}
	for _, s := range e.scene.Selection() {
		o.Handles = append(o.Handles, s.Handles()...)
	}
	if g := e.g; g != nil {
		switch g.kind {
		case gestureBox:
			r := vector.Normalize(g.start, g.cur)
			o.Box = &r
		case gestureDraw:
			o.Drawing = g.shape
		}
	}
	if e.hover.snap != nil {
		cp := e.hover.snap.Point
		o.Active = &cp
	}
	switch {
	case e.hover.connector != nil:
		o.Highlight = e.hover.connector
	case e.hover.shape != nil && e.offersPoints():
		o.Points = e.hover.shape.ConnectionPoints()
	case e.hover.shape != nil:
		o.Highlight = e.hover.shape
	}
	return o
}

// offersPoints reports whether connection points of the hovered shape
// should be shown: while a connector is drawn or an endpoint dragged, or
// when the pointer is close to one of them.
func (e *Editor) offersPoints() bool {
	if e.hover.snap != nil {
		return true
	}
	if k, ok := e.tool.Kind(); ok && k.IsConnector() {
		return true
	}
	g := e.g
	if g == nil {
		return false
	}
	if g.kind == gestureDraw {
		return diagram.IsConnector(g.shape)
	}
	return g.kind == gestureResize && diagram.IsConnector(g.target)
}
