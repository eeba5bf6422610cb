//go:build fyne && cgo

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
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"godiagram/internal/editor"
	"godiagram/internal/textlayout"
)

// DiagramCanvas is the drawing surface. It forwards pointer, wheel and
// keyboard input to the editor and paints through Renderer.
type DiagramCanvas struct {
	widget.BaseWidget

	ed       *editor.Editor
	renderer Renderer

	pressed bool
	shift   bool
	last    fyne.Position
	focused bool
}

func NewDiagramCanvas(ed *editor.Editor) *DiagramCanvas {
	c := &DiagramCanvas{
		ed:       ed,
		renderer: Renderer{Fonts: textlayout.Default()},
	}
	c.ExtendBaseWidget(c)
	return c
}

// CreateRenderer wraps a raster that is regenerated at the device pixel size.
func (c *DiagramCanvas) CreateRenderer() fyne.WidgetRenderer {
	raster := canvas.NewRaster(func(w, h int) image.Image {
		return c.renderer.Render(c.ed, w, h, c.pixelScale(w))
	})
	return &diagramCanvasRenderer{dc: c, raster: raster, objects: []fyne.CanvasObject{raster}}
}

// PreferredSize sets a decent default size for the widget.
func (c *DiagramCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

func (c *DiagramCanvas) pixelScale(w int) float64 {
	if sz := c.Size(); sz.Width > 0 {
		return float64(w) / float64(sz.Width)
	}
	return 1
}

// modifiers maps desktop modifiers; Super counts as Ctrl for macOS users.
func modifiers(m fyne.KeyModifier) editor.Modifiers {
	return editor.Modifiers{
		Shift: m&fyne.KeyModifierShift != 0,
		Ctrl:  m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0,
		Alt:   m&fyne.KeyModifierAlt != 0,
	}
}

func (c *DiagramCanvas) requestFocus() {
	if c.focused {
		return
	}
	a := fyne.CurrentApp()
	if a == nil {
		return
	}
	if cv := a.Driver().CanvasForObject(c); cv != nil {
		cv.Focus(c)
	}
}

// Pointer input. Fyne delivers drags through Dragged while a button is
// held and hover moves through MouseMoved.

func (c *DiagramCanvas) MouseDown(ev *desktop.MouseEvent) {
	c.requestFocus()
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	c.pressed = true
	c.last = ev.Position
	c.ed.PointerDown(float64(ev.Position.X), float64(ev.Position.Y), modifiers(ev.Modifier))
}

func (c *DiagramCanvas) MouseUp(ev *desktop.MouseEvent) {
	if !c.pressed {
		return
	}
	c.pressed = false
	c.ed.PointerUp(float64(ev.Position.X), float64(ev.Position.Y), modifiers(ev.Modifier))
}

func (c *DiagramCanvas) MouseIn(ev *desktop.MouseEvent) {}

func (c *DiagramCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if c.pressed {
		return
	}
	c.ed.PointerMove(float64(ev.Position.X), float64(ev.Position.Y), modifiers(ev.Modifier))
}

func (c *DiagramCanvas) MouseOut() {}

func (c *DiagramCanvas) Dragged(ev *fyne.DragEvent) {
	c.last = ev.Position
	c.ed.PointerMove(float64(ev.Position.X), float64(ev.Position.Y), editor.Modifiers{Shift: c.shift})
}

// DragEnd finishes a gesture whose button release was not seen, e.g. when
// the pointer left the window.
func (c *DiagramCanvas) DragEnd() {
	if c.pressed || c.ed.Busy() {
		c.pressed = false
		c.ed.PointerUp(float64(c.last.X), float64(c.last.Y), editor.Modifiers{Shift: c.shift})
	}
}

func (c *DiagramCanvas) DoubleTapped(ev *fyne.PointEvent) {
	c.ed.DoubleClick(float64(ev.Position.X), float64(ev.Position.Y))
}

// Scrolled zooms around the pointer. Fyne reports scrolling up as positive.
func (c *DiagramCanvas) Scrolled(ev *fyne.ScrollEvent) {
	c.ed.Wheel(-float64(ev.Scrolled.DY), float64(ev.Position.X), float64(ev.Position.Y))
}

func (c *DiagramCanvas) Cursor() desktop.Cursor {
	if c.ed.Tool().Draws() {
		return desktop.CrosshairCursor
	}
	return desktop.DefaultCursor
}

// Keyboard input.

func (c *DiagramCanvas) FocusGained() { c.focused = true }
func (c *DiagramCanvas) FocusLost()   { c.focused = false; c.shift = false }

func (c *DiagramCanvas) TypedKey(ev *fyne.KeyEvent) {
	// single characters are handled by TypedRune
	if len(ev.Name) == 1 {
		return
	}
	if k := editorKey(string(ev.Name)); k != "" {
		c.ed.KeyPress(k, editor.Modifiers{Shift: c.shift})
	}
}

func (c *DiagramCanvas) TypedRune(r rune) {
	c.ed.KeyPress(string(r), editor.Modifiers{})
}

func (c *DiagramCanvas) KeyDown(ev *fyne.KeyEvent) {
	if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
		c.shift = true
	}
}

func (c *DiagramCanvas) KeyUp(ev *fyne.KeyEvent) {
	if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
		c.shift = false
	}
}

func (c *DiagramCanvas) TypedShortcut(s fyne.Shortcut) {
	if key, m, ok := shortcutKey(s); ok {
		c.ed.KeyPress(key, m)
	}
}

// shortcutKey converts a Fyne shortcut into an editor key press.
func shortcutKey(s fyne.Shortcut) (string, editor.Modifiers, bool) {
	if cs, ok := s.(*desktop.CustomShortcut); ok {
		k := editorKey(string(cs.KeyName))
		return k, modifiers(cs.Modifier), k != ""
	}
	ctrl := editor.Modifiers{Ctrl: true}
	switch s.ShortcutName() {
	case "Copy":
		return "c", ctrl, true
	case "Cut":
		return "x", ctrl, true
	case "Paste":
		return "v", ctrl, true
	case "SelectAll":
		return "a", ctrl, true
	case "Undo":
		return "z", ctrl, true
	case "Redo":
		return "y", ctrl, true
	}
	return "", editor.Modifiers{}, false
}

type diagramCanvasRenderer struct {
	dc      *DiagramCanvas
	raster  *canvas.Raster
	objects []fyne.CanvasObject
}

func (r *diagramCanvasRenderer) Destroy()                     {}
func (r *diagramCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *diagramCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(200, 150) }
func (r *diagramCanvasRenderer) Layout(size fyne.Size)        { r.raster.Resize(size) }
func (r *diagramCanvasRenderer) Refresh()                     { canvas.Refresh(r.raster) }
