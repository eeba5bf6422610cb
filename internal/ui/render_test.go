/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"godiagram/internal/diagram"
	"godiagram/internal/editor"
)

func newSelectedRect(t *testing.T) (*editor.Editor, *diagram.Rectangle) {
	t.Helper()
	cfg := editor.DefaultConfig()
	cfg.GridEnabled = false
	ed := editor.New(cfg, editor.NopNotifier{})
	r := diagram.NewRectangle(40, 40, 100, 60)
	r.FillColor = "#00ff00"
	ed.Scene().AddShape(r)
	ed.Scene().Select(r)
	return ed, r
}

func rgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func isAccent(c color.NRGBA) bool {
	return c.R > 90 && c.R < 115 && c.G > 115 && c.G < 140 && c.B > 220
}

func TestRenderPaintsShapesAndHandles(t *testing.T) {
	ed, _ := newSelectedRect(t)
	img := Renderer{}.Render(ed, 200, 150, 1)
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Fatalf("size %v", b)
	}
	if c := rgbaAt(img, 5, 5); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Fatalf("background: %+v", c)
	}
	if c := rgbaAt(img, 90, 60); c.G < 240 || c.R > 20 {
		t.Fatalf("fill: %+v", c)
	}
	// se handle sits on the bottom-right corner
	if c := rgbaAt(img, 140, 100); !isAccent(c) {
		t.Fatalf("handle: %+v", c)
	}
}

func TestRenderFollowsViewAndPixelScale(t *testing.T) {
	ed, _ := newSelectedRect(t)
	ed.SetView(editor.View{Zoom: 2, PanX: -20, PanY: -10})
	img := Renderer{}.Render(ed, 800, 600, 2)
	// corner (140,100) -> screen (260,190) -> pixels (520,380)
	if c := rgbaAt(img, 520, 380); !isAccent(c) {
		t.Fatalf("handle after zoom: %+v", c)
	}
	if c := rgbaAt(img, 10, 10); c.R != 255 {
		t.Fatalf("background after zoom: %+v", c)
	}
}

func TestRenderGridToggle(t *testing.T) {
	ed, _ := newSelectedRect(t)
	plain := Renderer{}.Render(ed, 120, 80, 1)
	ed.ToggleGrid()
	grid := Renderer{}.Render(ed, 120, 80, 1)
	if bytes.Equal(plain.Pix, grid.Pix) {
		t.Fatalf("grid did not change the image")
	}
}
