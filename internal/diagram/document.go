/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"encoding/json"
	"errors"
	"fmt"

	"godiagram/internal/vector"
)

// View defaults and limits persisted with a document.
const (
	MinZoom         = 0.1
	MaxZoom         = 5.0
	DefaultGridSize = 20.0
)

// Point is a serialized waypoint.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConnectorRecord holds the fields only connectors serialize.
type ConnectorRecord struct {
	X1              float64     `json:"x1"`
	Y1              float64     `json:"y1"`
	X2              float64     `json:"x2"`
	Y2              float64     `json:"y2"`
	StartConnection *Connection `json:"startConnection"`
	EndConnection   *Connection `json:"endConnection"`
	Waypoints       []Point     `json:"waypoints"`
}

// Record is the serialized form of one shape. Style fields are inlined and
// connector fields appear only for Arrow and Line. Group children are nested
// under "shapes" with absolute coordinates.
type Record struct {
	Type     Kind    `json:"type"`
	ID       ID      `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Style
	CornerRadius float64 `json:"cornerRadius,omitempty"`
	*ConnectorRecord
	Shapes []Record `json:"shapes,omitempty"`
}

// UnmarshalJSON fills absent style fields with their defaults.
func (r *Record) UnmarshalJSON(b []byte) error {
	type plain Record
	p := plain{Style: DefaultStyle()}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Record(p)
	return nil
}

// FromRecord rebuilds a shape. Unknown types become rectangles and a missing
// id is replaced by a fresh one. Connections are not resolved here.
func FromRecord(r Record) Shape {
	switch r.Type {
	case KindArrow, KindLine:
		c := newConnector(r.Type, 0, 0, 0, 0)
		c.apply(r)
		if cr := r.ConnectorRecord; cr != nil {
			c.Start = vector.Pt{X: cr.X1, Y: cr.Y1}
			c.End = vector.Pt{X: cr.X2, Y: cr.Y2}
			c.StartConnection = cloneConnection(cr.StartConnection)
			c.EndConnection = cloneConnection(cr.EndConnection)
			for _, wp := range cr.Waypoints {
				c.Waypoints = append(c.Waypoints, vector.Pt{X: wp.X, Y: wp.Y})
			}
		} else {
			c.Start = vector.Pt{X: r.X, Y: r.Y}
			c.End = vector.Pt{X: r.X + r.Width, Y: r.Y + r.Height}
		}
		c.UpdateBoundingBox()
		return c
	case KindGroup:
		children := make([]Shape, 0, len(r.Shapes))
		for _, cr := range r.Shapes {
			children = append(children, FromRecord(cr))
		}
		g := NewGroup(children)
		x, y, w, h := g.X, g.Y, g.Width, g.Height
		g.apply(r)
		if len(children) > 0 {
			g.X, g.Y, g.Width, g.Height = x, y, w, h
		}
		return g
	case KindRoundedRectangle:
		rr := NewRoundedRectangle(0, 0, 0, 0)
		rr.apply(r)
		if r.CornerRadius > 0 {
			rr.Radius = r.CornerRadius
		}
		return rr
	default:
		s := NewShape(r.Type, 0, 0, 0, 0)
		s.Geom().apply(r)
		return s
	}
}

// Document is the persisted form of a diagram together with its view state.
type Document struct {
	Shapes            []Record `json:"shapes"`
	Zoom              float64  `json:"zoom"`
	PanX              float64  `json:"panX"`
	PanY              float64  `json:"panY"`
	GridEnabled       bool     `json:"gridEnabled"`
	GridSize          float64  `json:"gridSize"`
	SnapToGrid        bool     `json:"snapToGrid"`
	GuidelinesEnabled bool     `json:"guidelinesEnabled"`
}

// NewDocument returns an empty document with default view settings.
func NewDocument() Document {
	return Document{
		Shapes:            []Record{},
		Zoom:              1,
		GridEnabled:       true,
		GridSize:          DefaultGridSize,
		SnapToGrid:        true,
		GuidelinesEnabled: true,
	}
}

var errMissingShapes = errors.New(`missing "shapes" array`)

// UnmarshalJSON applies view defaults for absent fields and requires a shapes array.
func (d *Document) UnmarshalJSON(b []byte) error {
	type plain Document
	p := plain(NewDocument())
	p.Shapes = nil
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Shapes == nil {
		return errMissingShapes
	}
	*d = Document(p)
	return nil
}

// LoadError reports a document that could not be loaded. The scene it was
// meant to replace is left untouched.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return "load diagram: " + e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// ParseDocument decodes and normalizes a document.
func ParseDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, &LoadError{Err: err}
	}
	d.Zoom = clamp(d.Zoom, MinZoom, MaxZoom)
	d.GridSize = vector.ClampGridSize(d.GridSize)
	return d, nil
}

// MarshalDocument encodes d compactly.
func MarshalDocument(d Document) ([]byte, error) {
	if d.Shapes == nil {
		d.Shapes = []Record{}
	}
	return json.Marshal(d)
}

// LoadScene parses data and builds a scene with resolved connections.
// On any error nothing is returned; callers keep their current scene.
func LoadScene(data []byte) (*Scene, Document, error) {
	d, err := ParseDocument(data)
	if err != nil {
		return nil, Document{}, err
	}
	sc, err := SceneFromRecords(d.Shapes)
	if err != nil {
		return nil, Document{}, err
	}
	return sc, d, nil
}

// SceneFromRecords builds shapes, groups first, then resolves connections.
func SceneFromRecords(recs []Record) (*Scene, error) {
	sc := NewScene()
	for _, r := range recs {
		sc.shapes = append(sc.shapes, FromRecord(r))
	}
	seen := make(map[ID]bool)
	var dup ID
	for _, s := range sc.AllShapes() {
		if seen[s.ID()] && dup == "" {
			dup = s.ID()
		}
		seen[s.ID()] = true
	}
	if dup != "" {
		return nil, &LoadError{Err: fmt.Errorf("duplicate shape id %q", dup)}
	}
	sc.reindex()
	sc.UpdateAllConnections()
	return sc, nil
}

// ContentBounds is the union of all top-level bounding boxes. ok is false
// for an empty scene.
func ContentBounds(shapes []Shape) (r vector.Rect, ok bool) {
	for i, s := range shapes {
		if i == 0 {
			r = s.Bounds()
			continue
		}
		r = r.Union(s.Bounds())
	}
	return r, len(shapes) > 0
}
