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
	"math"
	"testing"

	"godiagram/internal/vector"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestContainsCenterAndFarOutside(t *testing.T) {
	kinds := []Kind{KindRectangle, KindRoundedRectangle, KindCircle, KindDiamond, KindParallelogram, KindDocument, KindDatabase, KindTextBox}
	for _, k := range kinds {
		s := NewShape(k, 100, 100, 80, 60)
		if s.Kind() != k {
			t.Fatalf("NewShape(%s) returned kind %s", k, s.Kind())
		}
		if !s.Contains(vector.Pt{X: 140, Y: 130}) {
			t.Fatalf("%s should contain its center", k)
		}
		if s.Contains(vector.Pt{X: 1000, Y: -1000}) {
			t.Fatalf("%s should not contain a far point", k)
		}
	}
}

func TestCircleUsesRadiusNotBox(t *testing.T) {
	c := NewCircle(0, 0, 100, 100)
	if c.Contains(vector.Pt{X: 2, Y: 2}) {
		t.Fatalf("bounding box corner must be outside the circle")
	}
	if !c.Contains(vector.Pt{X: 50, Y: 0}) {
		t.Fatalf("top of circle should be inside (inclusive)")
	}
	pts := c.ConnectionPoints()
	if len(pts) != 8 || pts[0].Position != "0deg" || pts[2].Position != "90deg" {
		t.Fatalf("unexpected circle points: %+v", pts)
	}
	if !near(pts[0].X, 100) || !near(pts[0].Y, 50) || !near(pts[2].X, 50) || !near(pts[2].Y, 100) {
		t.Fatalf("circle points off perimeter: %+v", pts[:3])
	}
}

func TestDiamondPointsAndContains(t *testing.T) {
	d := NewDiamond(0, 0, 100, 60)
	if d.Contains(vector.Pt{X: 5, Y: 5}) {
		t.Fatalf("corner must be outside the diamond")
	}
	cp, ok := ConnectionPointByPosition(d, "top-right")
	if !ok || !near(cp.X, 75) || !near(cp.Y, 15) {
		t.Fatalf("top-right midpoint wrong: %+v ok=%v", cp, ok)
	}
	if cp, _ := ConnectionPointByPosition(d, "left"); cp.X != 0 || cp.Y != 30 {
		t.Fatalf("left vertex wrong: %+v", cp)
	}
}

func TestDefaultConnectionPointOrder(t *testing.T) {
	r := NewRectangle(10, 20, 100, 50)
	want := []string{"top", "right", "bottom", "left", "top-right", "top-left", "bottom-right", "bottom-left"}
	got := r.ConnectionPoints()
	for i, w := range want {
		if got[i].Position != w {
			t.Fatalf("point %d = %s, want %s", i, got[i].Position, w)
		}
	}
	if got[1].X != 110 || got[1].Y != 45 {
		t.Fatalf("right point = %+v", got[1])
	}
}

func TestResizeByHandleDirection(t *testing.T) {
	r := NewRectangle(100, 100, 100, 100)
	h, ok := HandleAt(r, vector.Pt{X: 103, Y: 98})
	if !ok || h.Dir != "nw" {
		t.Fatalf("expected nw handle, got %+v ok=%v", h, ok)
	}
	r.Resize(h, vector.Pt{X: 50, Y: 80})
	if r.X != 50 || r.Y != 80 || r.Width != 150 || r.Height != 120 {
		t.Fatalf("nw resize wrong: %+v", r.Bounds())
	}
	se := r.Handles()[4]
	r.Resize(se, vector.Pt{X: 55, Y: 85})
	if r.Width != MinShapeSize || r.Height != MinShapeSize {
		t.Fatalf("resize must clamp to min size, got %vx%v", r.Width, r.Height)
	}
}

func TestCircleHandleResizesMatchingEdges(t *testing.T) {
	c := NewCircle(0, 0, 100, 100)
	var east Handle
	for _, h := range c.Handles() {
		if h.Dir == "e" {
			east = h
		}
	}
	if east.X != 100 || east.Y != 50 {
		t.Fatalf("east handle at %v,%v", east.X, east.Y)
	}
	c.Resize(east, vector.Pt{X: 140, Y: 10})
	if c.Width != 140 || c.Height != 100 || c.Y != 0 {
		t.Fatalf("east resize must only move the right edge: %+v", c.Bounds())
	}
}

func TestStyleClamp(t *testing.T) {
	s := Style{FontSize: 200, StrokeWidth: -1}
	s.Clamp()
	if s.FontSize != MaxFontSize || s.StrokeWidth != 0 {
		t.Fatalf("clamp: %+v", s)
	}
	s = Style{FontSize: 1, StrokeWidth: 50}
	s.Clamp()
	if s.FontSize != MinFontSize || s.StrokeWidth != MaxStrokeWidth {
		t.Fatalf("clamp: %+v", s)
	}
}

func TestTextBoxDefaultsTransparent(t *testing.T) {
	tb := NewTextBox(0, 0, 50, 50)
	parts := Parts(tb)
	if len(parts) != 1 || parts[0].Paint.HasFill() || parts[0].Paint.HasStroke() {
		t.Fatalf("text box should paint nothing by default: %+v", parts)
	}
}

func TestLegacyNumericID(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"type":"Rectangle","id":1712345678901.123,"x":1,"y":2,"width":3,"height":4}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.ID != "1712345678901.123" {
		t.Fatalf("numeric id not preserved: %q", r.ID)
	}
	if r.FontSize != 14 || r.FillColor != "#ffffff" {
		t.Fatalf("absent style fields should default: %+v", r.Style)
	}
}

func TestRotationIsRenderOnly(t *testing.T) {
	r := NewRectangle(0, 0, 100, 50)
	r.Rotation = 90
	if !r.Contains(vector.Pt{X: 90, Y: 10}) {
		t.Fatalf("hit testing must ignore rotation")
	}
	b := Parts(r)[0].Path.Bounds()
	if !near(vector.FloatRound(b.W, 6), 50) || !near(vector.FloatRound(b.H, 6), 100) {
		t.Fatalf("rendered outline should be rotated, got %+v", b)
	}
}
