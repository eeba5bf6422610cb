//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
//
// Ensure you have the Fyne dependencies installed and a working OS driver.
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"godiagram/internal/editor"
)

func newTestCanvas(t *testing.T) (*DiagramCanvas, *editor.Editor) {
	t.Helper()
	test.NewTempApp(t)
	ed := editor.New(editor.DefaultConfig(), nil)
	dc := NewDiagramCanvas(ed)
	dc.Resize(fyne.NewSize(400, 300))
	return dc, ed
}

func mouse(x, y float32, m fyne.KeyModifier) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
		Modifier:   m,
	}
}

func TestDiagramCanvas_Defaults(t *testing.T) {
	dc, _ := newTestCanvas(t)
	sz := dc.PreferredSize()
	if sz.Width != 800 || sz.Height != 600 {
		t.Fatalf("unexpected PreferredSize: %v", sz)
	}
	if _, ok := dc.CreateRenderer().(*diagramCanvasRenderer); !ok {
		t.Fatalf("expected diagramCanvasRenderer, got %T", dc.CreateRenderer())
	}
	if s := dc.pixelScale(800); s != 2 {
		t.Fatalf("pixel scale for 800px over 400 units: %v", s)
	}
}

func TestDiagramCanvas_DrawGesture(t *testing.T) {
	dc, ed := newTestCanvas(t)
	ed.SetTool(editor.ToolRectangle)
	if dc.Cursor() != desktop.CrosshairCursor {
		t.Fatalf("draw tools should use the crosshair cursor")
	}
	dc.MouseDown(mouse(20, 20, 0))
	dc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(140, 100)}})
	dc.MouseUp(mouse(140, 100, 0))
	dc.DragEnd()
	if ed.Scene().Len() != 1 {
		t.Fatalf("expected one drawn shape, got %d", ed.Scene().Len())
	}
	if ed.Busy() {
		t.Fatalf("gesture still active after release")
	}
}

func TestDiagramCanvas_ScrollZooms(t *testing.T) {
	dc, ed := newTestCanvas(t)
	dc.Scrolled(&fyne.ScrollEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 100)}, Scrolled: fyne.Delta{DY: 1}})
	if ed.View().Zoom <= 1 {
		t.Fatalf("scrolling up should zoom in, zoom=%v", ed.View().Zoom)
	}
}

func TestDiagramCanvas_Keys(t *testing.T) {
	dc, ed := newTestCanvas(t)
	dc.TypedRune('h')
	if ed.Tool() != editor.ToolPan {
		t.Fatalf("h should select the pan tool, got %s", ed.Tool())
	}
	dc.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	dc.TypedRune('g')
	if ed.GridEnabled() {
		t.Fatalf("g should toggle the grid off")
	}
}

func TestShortcutKey(t *testing.T) {
	key, m, ok := shortcutKey(&fyne.ShortcutCopy{})
	if !ok || key != "c" || !m.Ctrl {
		t.Fatalf("copy shortcut: %q %+v %v", key, m, ok)
	}
	key, m, ok = shortcutKey(&desktop.CustomShortcut{KeyName: fyne.KeyLeft, Modifier: fyne.KeyModifierAlt})
	if !ok || key != editor.KeyArrowLeft || !m.Alt || m.Ctrl {
		t.Fatalf("alt+left: %q %+v %v", key, m, ok)
	}
	key, m, ok = shortcutKey(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierSuper | fyne.KeyModifierShift})
	if !ok || key != "z" || !m.Ctrl || !m.Shift {
		t.Fatalf("cmd+shift+z: %q %+v %v", key, m, ok)
	}
}
