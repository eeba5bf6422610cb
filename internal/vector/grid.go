/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Grid size bounds accepted by editors.
const (
	MinGridSize = 5
	MaxGridSize = 100
)

// ClampGridSize keeps a grid cell size within [MinGridSize, MaxGridSize].
func ClampGridSize(size float64) float64 {
	return math.Max(MinGridSize, math.Min(MaxGridSize, size))
}

// SnapToGrid rounds each coordinate of p to the nearest multiple of size.
// A non-positive size leaves p unchanged.
func SnapToGrid(p Pt, size float64) Pt {
	if size <= 0 {
		return p
	}
	return Pt{X: SnapValue(p.X, size), Y: SnapValue(p.Y, size)}
}

// SnapValue rounds v to the nearest multiple of size.
func SnapValue(v, size float64) float64 {
	if size <= 0 {
		return v
	}
	return math.Round(v/size) * size
}
