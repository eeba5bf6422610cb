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

const (
	// ConnectorHitTolerance is the maximum distance from a segment that still hits a connector.
	ConnectorHitTolerance = 10.0
	// ArrowHeadLength is the length of each arrow head barb.
	ArrowHeadLength       = 15.0
)

// Connection binds a connector endpoint to a tagged connection point of another shape.
type Connection struct {
	ShapeID  ID     `json:"shapeId"`
	Position string `json:"position"`
}

// Connector is an Arrow or a Line: a poly-line from Start through Waypoints to End.
// The embedded bounding box is kept equal to the envelope of those points.
type Connector struct {
	Base
	Start, End vector.Pt
	Waypoints  []vector.Pt

	StartConnection *Connection
	EndConnection   *Connection
}

// NewArrow creates an arrow from (x1,y1) to (x2,y2).
func NewArrow(x1, y1, x2, y2 float64) *Connector { return newConnector(KindArrow, x1, y1, x2, y2) }

// NewLine creates a plain line from (x1,y1) to (x2,y2).
func NewLine(x1, y1, x2, y2 float64) *Connector { return newConnector(KindLine, x1, y1, x2, y2) }

func newConnector(kind Kind, x1, y1, x2, y2 float64) *Connector {
	c := &Connector{
		Base:  newBase(kind, 0, 0, 0, 0),
		Start: vector.Pt{X: x1, Y: y1},
		End:   vector.Pt{X: x2, Y: y2},
	}
	c.FillColor = vector.TransparentName
	c.UpdateBoundingBox()
	return c
}

// HasHead reports whether the connector ends in an arrow head.
func (c *Connector) HasHead() bool { return c.kind == KindArrow }

// Points returns start, waypoints and end in drawing order.
func (c *Connector) Points() []vector.Pt {
	pts := make([]vector.Pt, 0, len(c.Waypoints)+2)
	pts = append(pts, c.Start)
	pts = append(pts, c.Waypoints...)
	return append(pts, c.End)
}

// Length is the straight distance between the endpoints.
func (c *Connector) Length() float64 { return vector.Dist(c.Start, c.End) }

// UpdateBoundingBox sets the bounding box to the envelope of all points.
func (c *Connector) UpdateBoundingBox() {
	r := vector.Envelope(c.Points()...)
	c.X, c.Y, c.Width, c.Height = r.X, r.Y, r.W, r.H
}

// Distance is the minimum distance from p to any segment.
func (c *Connector) Distance(p vector.Pt) float64 {
	pts := c.Points()
	d := math.Inf(1)
	for i := 0; i < len(pts)-1; i++ {
		d = math.Min(d, vector.DistToSegment(p, pts[i], pts[i+1]))
	}
	return d
}

func (c *Connector) Contains(p vector.Pt) bool { return c.Distance(p) < ConnectorHitTolerance }

// ConnectionPoints is empty; connectors never serve as connection targets.
func (c *Connector) ConnectionPoints() []ConnectionPoint { return nil }

// Handles are the start and end points followed by one handle per waypoint.
func (c *Connector) Handles() []Handle {
	hs := []Handle{
		{X: c.Start.X, Y: c.Start.Y, Cursor: "move", Kind: HandleStart},
		{X: c.End.X, Y: c.End.Y, Cursor: "move", Kind: HandleEnd},
	}
	for i, wp := range c.Waypoints {
		hs = append(hs, Handle{X: wp.X, Y: wp.Y, Cursor: "move", Kind: HandleWaypoint, Index: i})
	}
	return hs
}

// MoveBy translates every point. Connected endpoints are pulled back onto
// their targets by the next connection update.
func (c *Connector) MoveBy(dx, dy float64) {
	d := vector.Pt{X: dx, Y: dy}
	c.Start = c.Start.Add(d)
	c.End = c.End.Add(d)
	for i := range c.Waypoints {
		c.Waypoints[i] = c.Waypoints[i].Add(d)
	}
	c.UpdateBoundingBox()
}

// Resize moves the point behind the handle to p without touching connections.
func (c *Connector) Resize(h Handle, p vector.Pt) {
	switch h.Kind {
	case HandleStart:
		c.Start = p
	case HandleEnd:
		c.End = p
	case HandleWaypoint:
		if h.Index >= 0 && h.Index < len(c.Waypoints) {
			c.Waypoints[h.Index] = p
		}
	default:
		return
	}
	c.UpdateBoundingBox()
}

// AddWaypointAt projects p onto the closest segment and inserts the projection
// as a waypoint at that segment's index. It returns the waypoint's index.
func (c *Connector) AddWaypointAt(p vector.Pt) int {
	pts := c.Points()
	best, bestDist := 0, math.Inf(1)
	proj := p
	for i := 0; i < len(pts)-1; i++ {
		q, _ := vector.ClosestOnSegment(p, pts[i], pts[i+1])
		if d := vector.Dist(p, q); d < bestDist {
			best, bestDist, proj = i, d, q
		}
	}
	c.Waypoints = append(c.Waypoints, vector.Pt{})
	copy(c.Waypoints[best+1:], c.Waypoints[best:])
	c.Waypoints[best] = proj
	c.UpdateBoundingBox()
	return best
}

// RemoveWaypoint deletes the waypoint at index i. Out of range indexes are ignored.
func (c *Connector) RemoveWaypoint(i int) bool {
	if i < 0 || i >= len(c.Waypoints) {
		return false
	}
	c.Waypoints = append(c.Waypoints[:i], c.Waypoints[i+1:]...)
	c.UpdateBoundingBox()
	return true
}

// Resolve moves bound endpoints onto their target connection points. A
// missing shape or tag leaves that endpoint where it is.
func (c *Connector) Resolve(lookup func(ID) (Shape, bool)) {
	if p, ok := resolveConnection(c.StartConnection, lookup); ok {
		c.Start = p
	}
	if p, ok := resolveConnection(c.EndConnection, lookup); ok {
		c.End = p
	}
	c.UpdateBoundingBox()
}

func resolveConnection(conn *Connection, lookup func(ID) (Shape, bool)) (vector.Pt, bool) {
	if conn == nil {
		return vector.Pt{}, false
	}
	s, ok := lookup(conn.ShapeID)
	if !ok {
		return vector.Pt{}, false
	}
	cp, ok := ConnectionPointByPosition(s, conn.Position)
	if !ok {
		return vector.Pt{}, false
	}
	return cp.Pt(), true
}

// Outline is the open poly-line through all points.
func (c *Connector) Outline() vector.Path { return vector.PolylinePath(c.Points()...) }

// Head returns the filled arrow head triangle. It is empty for lines and
// for arrows whose last segment has zero length.
func (c *Connector) Head() vector.Path {
	if !c.HasHead() {
		return vector.Path{}
	}
	from := c.Start
	if n := len(c.Waypoints); n > 0 {
		from = c.Waypoints[n-1]
	}
	if from == c.End {
		return vector.Path{}
	}
	angle := math.Atan2(c.End.Y-from.Y, c.End.X-from.X)
	left := vector.Pt{
		X: c.End.X - ArrowHeadLength*math.Cos(angle-math.Pi/6),
		Y: c.End.Y - ArrowHeadLength*math.Sin(angle-math.Pi/6),
	}
	right := vector.Pt{
		X: c.End.X - ArrowHeadLength*math.Cos(angle+math.Pi/6),
		Y: c.End.Y - ArrowHeadLength*math.Sin(angle+math.Pi/6),
	}
	return vector.PolygonPath(c.End, left, right)
}

func (c *Connector) Record() Record {
	rec := c.Base.Record()
	wps := make([]Point, 0, len(c.Waypoints))
	for _, wp := range c.Waypoints {
		wps = append(wps, Point{X: wp.X, Y: wp.Y})
	}
	rec.ConnectorRecord = &ConnectorRecord{
		X1: c.Start.X, Y1: c.Start.Y,
		X2: c.End.X, Y2: c.End.Y,
		StartConnection: cloneConnection(c.StartConnection),
		EndConnection:   cloneConnection(c.EndConnection),
		Waypoints:       wps,
	}
	return rec
}

func cloneConnection(c *Connection) *Connection {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
