/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"math"
	"sort"
)

// AlignMode selects how Align arranges the selection.
type AlignMode string

const (
	AlignLeft            AlignMode = "left"
	AlignCenter          AlignMode = "center"
	AlignRight           AlignMode = "right"
	AlignTop             AlignMode = "top"
	AlignMiddle          AlignMode = "middle"
	AlignBottom          AlignMode = "bottom"
	DistributeHorizontal AlignMode = "distribute-horizontal"
	DistributeVertical   AlignMode = "distribute-vertical"
)

// Align arranges the selected non-connector shapes against their common
// bounds. Distribution keeps the outermost shapes in place and spaces the
// others evenly by their left (or top) edges.
func (s *Scene) Align(mode AlignMode) error {
	var shapes []Shape
	for _, sh := range s.selection {
		if !IsConnector(sh) {
			shapes = append(shapes, sh)
		}
	}
	if len(shapes) < 2 {
		return ErrAlignNeedsTwo
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, sh := range shapes {
		b := sh.Bounds()
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.W)
		maxY = math.Max(maxY, b.Y+b.H)
	}
	setX := func(sh Shape, x float64) { MoveTo(sh, x, sh.Bounds().Y) }
	setY := func(sh Shape, y float64) { MoveTo(sh, sh.Bounds().X, y) }

	switch mode {
	case AlignLeft:
		for _, sh := range shapes {
			setX(sh, minX)
		}
	case AlignCenter:
		cx := minX + (maxX-minX)/2
		for _, sh := range shapes {
			setX(sh, cx-sh.Bounds().W/2)
		}
	case AlignRight:
		for _, sh := range shapes {
			setX(sh, maxX-sh.Bounds().W)
		}
	case AlignTop:
		for _, sh := range shapes {
			setY(sh, minY)
		}
	case AlignMiddle:
		cy := minY + (maxY-minY)/2
		for _, sh := range shapes {
			setY(sh, cy-sh.Bounds().H/2)
		}
	case AlignBottom:
		for _, sh := range shapes {
			setY(sh, maxY-sh.Bounds().H)
		}
	case DistributeHorizontal, DistributeVertical:
		if len(shapes) < 3 {
			return ErrDistributeNeedsThree
		}
		horizontal := mode == DistributeHorizontal
		key := func(sh Shape) float64 {
			if horizontal {
				return sh.Bounds().X
			}
			return sh.Bounds().Y
		}
		sort.SliceStable(shapes, func(i, j int) bool { return key(shapes[i]) < key(shapes[j]) })
		lo, hi := minY, maxY
		if horizontal {
			lo, hi = minX, maxX
		}
		step := (hi - lo) / float64(len(shapes)-1)
		for i := 1; i < len(shapes)-1; i++ {
			if horizontal {
				setX(shapes[i], lo+step*float64(i))
			} else {
				setY(shapes[i], lo+step*float64(i))
			}
		}
	default:
		return ErrUnknownAlignMode
	}
	s.UpdateAllConnections()
	return nil
}
