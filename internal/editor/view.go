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
	"math"

	"godiagram/internal/diagram"
	"godiagram/internal/vector"
)

const (
	wheelZoomIn  = 1.1
	wheelZoomOut = 0.9
	zoomStep     = 1.2
)

// View maps document coordinates to the screen: screen = doc*Zoom + Pan.
type View struct {
	Zoom float64
	PanX float64
	PanY float64
}

// DefaultView is the unzoomed, unpanned view.
func DefaultView() View { return View{Zoom: 1} }

// ScreenToDocument converts a screen point into document space.
func (v View) ScreenToDocument(x, y float64) vector.Pt {
	return vector.Pt{X: (x - v.PanX) / v.Zoom, Y: (y - v.PanY) / v.Zoom}
}

// DocumentToScreen converts a document point into screen space.
func (v View) DocumentToScreen(p vector.Pt) (float64, float64) {
	return p.X*v.Zoom + v.PanX, p.Y*v.Zoom + v.PanY
}

// Transform returns the document-to-screen matrix.
func (v View) Transform() vector.Affine2D {
	return vector.Translate(v.PanX, v.PanY).Mul(vector.Scale(v.Zoom, v.Zoom))
}

func clampZoom(z float64) float64 {
	return math.Max(diagram.MinZoom, math.Min(diagram.MaxZoom, z))
}

// Wheel zooms by one wheel notch while keeping the document point under
// (mx, my) fixed on screen. Positive deltaY zooms out.
func (v *View) Wheel(deltaY, mx, my float64) {
	factor := wheelZoomIn
	if deltaY > 0 {
		factor = wheelZoomOut
	}
	old := v.Zoom
	v.Zoom = clampZoom(old * factor)
	ratio := v.Zoom / old
	v.PanX = mx - (mx-v.PanX)*ratio
	v.PanY = my - (my-v.PanY)*ratio
}

func (v *View) ZoomIn()  { v.Zoom = clampZoom(v.Zoom * zoomStep) }
func (v *View) ZoomOut() { v.Zoom = clampZoom(v.Zoom / zoomStep) }

// Reset returns to zoom 1 without pan.
func (v *View) Reset() { *v = DefaultView() }
