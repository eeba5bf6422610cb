/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Smart guides for interactive dragging. These utilities are UI-agnostic and
// deterministic to enable unit testing and reuse across different frontends.

import "math"

// Guide orientations.
const (
	Vertical   = "vertical"
	Horizontal = "horizontal"
)

// GuideLine describes an alignment guide found during a drag.
// Orientation is "vertical" (Position is an x) or "horizontal" (Position is a y).
// Kind indicates which features aligned: "edge" or "center".
// From and To span the moving rect and the anchor it aligned with, for rendering.
type GuideLine struct {
	Orientation string
	Kind        string
	Position    float64
	From        Pt
	To          Pt
}

// FindGuides compares the moving rect's left/right/center-x and top/bottom/center-y
// against every anchor. A pair closer than threshold (strictly) yields a guide at the
// anchor's coordinate. Guides are returned in anchor order, x checks before y checks.
func FindGuides(moving Rect, anchors []Rect, threshold float64) []GuideLine {
	if threshold <= 0 {
		return nil
	}
	var guides []GuideLine
	mL, mR, mCX := moving.X, moving.X+moving.W, moving.X+moving.W/2
	mT, mB, mCY := moving.Y, moving.Y+moving.H, moving.Y+moving.H/2
	near := func(a, b float64) bool { return math.Abs(a-b) < threshold }

	for _, a := range anchors {
		aL, aR, aCX := a.X, a.X+a.W, a.X+a.W/2
		aT, aB, aCY := a.Y, a.Y+a.H, a.Y+a.H/2

		if near(mL, aL) {
			guides = append(guides, guideForVertical(aL, moving, a, "edge"))
		}
		if near(mR, aR) {
			guides = append(guides, guideForVertical(aR, moving, a, "edge"))
		}
		if near(mCX, aCX) {
			guides = append(guides, guideForVertical(aCX, moving, a, "center"))
		}
		// abutting edges
		if near(mL, aR) {
			guides = append(guides, guideForVertical(aR, moving, a, "edge"))
		}
		if near(mR, aL) {
			guides = append(guides, guideForVertical(aL, moving, a, "edge"))
		}

		if near(mT, aT) {
			guides = append(guides, guideForHorizontal(aT, moving, a, "edge"))
		}
		if near(mB, aB) {
			guides = append(guides, guideForHorizontal(aB, moving, a, "edge"))
		}
		if near(mCY, aCY) {
			guides = append(guides, guideForHorizontal(aCY, moving, a, "center"))
		}
		if near(mT, aB) {
			guides = append(guides, guideForHorizontal(aB, moving, a, "edge"))
		}
		if near(mB, aT) {
			guides = append(guides, guideForHorizontal(aT, moving, a, "edge"))
		}
	}
	return guides
}

// ApplyGuides pulls the moving rect onto the guides in order. For each guide the
// rect's current leading edge is tried first, then the trailing edge, then the
// center; the first feature within threshold snaps. Later guides see the result
// of earlier ones, so the last matching guide on an axis wins.
func ApplyGuides(moving Rect, guides []GuideLine, threshold float64) Rect {
	r := moving
	near := func(a, b float64) bool { return math.Abs(a-b) < threshold }
	for _, g := range guides {
		switch g.Orientation {
		case Vertical:
			switch {
			case near(r.X, g.Position):
				r.X = g.Position
			case near(r.X+r.W, g.Position):
				r.X = g.Position - r.W
			case near(r.X+r.W/2, g.Position):
				r.X = g.Position - r.W/2
			}
		case Horizontal:
			switch {
			case near(r.Y, g.Position):
				r.Y = g.Position
			case near(r.Y+r.H, g.Position):
				r.Y = g.Position - r.H
			case near(r.Y+r.H/2, g.Position):
				r.Y = g.Position - r.H/2
			}
		}
	}
	return r
}

// ComputeSmartGuides finds guides for moving against anchors and applies them.
// It returns the snapped rectangle and the guides to render.
func ComputeSmartGuides(moving Rect, anchors []Rect, threshold float64) (Rect, []GuideLine) {
	guides := FindGuides(moving, anchors, threshold)
	if len(guides) == 0 {
		return moving, nil
	}
	return ApplyGuides(moving, guides, threshold), guides
}

func guideForVertical(x float64, a Rect, b Rect, kind string) GuideLine {
	minY := math.Min(a.Y, b.Y)
	maxY := math.Max(a.Y+a.H, b.Y+b.H)
	return GuideLine{
		Orientation: Vertical,
		Kind:        kind,
		Position:    x,
		From:        Pt{x, minY},
		To:          Pt{x, maxY},
	}
}

func guideForHorizontal(y float64, a Rect, b Rect, kind string) GuideLine {
	minX := math.Min(a.X, b.X)
	maxX := math.Max(a.X+a.W, b.X+b.W)
	return GuideLine{
		Orientation: Horizontal,
		Kind:        kind,
		Position:    y,
		From:        Pt{minX, y},
		To:          Pt{maxX, y},
	}
}
