/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"math"

	"godiagram/internal/vector"
)

// Screen-space radii; callers divide by the zoom factor.
const (
	SnapDistance         = 15.0
	ConnectionHoverRange = 8.0
	EndpointHitRadius    = 12.0
	// EndpointLengthShare is the share of a connector's length that still
	// counts as "near an endpoint".
	EndpointLengthShare  = 0.2
)

// UpdateAllConnections moves every bound connector endpoint, grouped
// connectors included, onto its target's current connection point.
func (s *Scene) UpdateAllConnections() {
	for _, sh := range s.AllShapes() {
		if c, ok := sh.(*Connector); ok {
			c.Resolve(s.Lookup)
		}
	}
	// grouped connectors may have moved; keep group bounds and offsets current
	for _, sh := range s.shapes {
		if g, ok := sh.(*Group); ok {
			g.refresh()
		}
	}
}

// Snap is a connection point found near a pointer.
type Snap struct {
	Shape Shape
	Point ConnectionPoint
}

// Connection returns the binding that attaches an endpoint to the snap target.
func (sn Snap) Connection() *Connection {
	return &Connection{ShapeID: sn.Shape.ID(), Position: sn.Point.Position}
}

// FindNearestConnectionPoint returns the connection point closest to p within
// radius, searching grouped shapes too. Connectors and exclude are skipped.
func (s *Scene) FindNearestConnectionPoint(p vector.Pt, radius float64, exclude Shape) (Snap, bool) {
	best, bestDist := Snap{}, math.Inf(1)
	for _, sh := range s.AllShapes() {
		if sh == exclude || IsConnector(sh) {
			continue
		}
		for _, cp := range sh.ConnectionPoints() {
			if d := vector.Dist(p, cp.Pt()); d < radius && d < bestDist {
				best, bestDist = Snap{Shape: sh, Point: cp}, d
			}
		}
	}
	return best, best.Shape != nil
}

// ConnectionPointAt returns a connection point of a non-connector shape
// lying within radius of p. Shapes are checked top-down.
func (s *Scene) ConnectionPointAt(p vector.Pt, radius float64) (Snap, bool) {
	all := s.AllShapes()
	for i := len(all) - 1; i >= 0; i-- {
		sh := all[i]
		if IsConnector(sh) {
			continue
		}
		for _, cp := range sh.ConnectionPoints() {
			if IsNearConnectionPoint(p, cp, radius) {
				return Snap{Shape: sh, Point: cp}, true
			}
		}
	}
	return Snap{}, false
}

// IsNearConnectionPoint reports whether p lies within radius of cp.
func IsNearConnectionPoint(p vector.Pt, cp ConnectionPoint, radius float64) bool {
	return vector.Dist(p, cp.Pt()) < radius
}

// ConnectorEndpointAt finds the topmost connector with an endpoint near p.
// The radius grows with the connector's length so short and long connectors
// are equally easy to grab; the start point is checked before the end.
func (s *Scene) ConnectorEndpointAt(p vector.Pt, minRadius float64) (*Connector, HandleKind, bool) {
	for i := len(s.shapes) - 1; i >= 0; i-- {
		c, ok := s.shapes[i].(*Connector)
		if !ok {
			continue
		}
		r := math.Max(minRadius, c.Length()*EndpointLengthShare)
		if vector.Dist(p, c.Start) < r {
			return c, HandleStart, true
		}
		if vector.Dist(p, c.End) < r {
			return c, HandleEnd, true
		}
	}
	return nil, 0, false
}
