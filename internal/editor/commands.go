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
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"godiagram/internal/diagram"
	"godiagram/internal/vector"
)

// DeleteSelected removes the selection. Connectors bound to removed shapes
// keep their last endpoint positions.
func (e *Editor) DeleteSelected() int {
	n := e.scene.DeleteSelected()
	if n == 0 {
		return 0
	}
	e.selectionChanged()
	e.commit("delete")
	return n
}

// Duplicate clones the selection with an offset and selects the clones.
func (e *Editor) Duplicate() error {
	if _, err := e.scene.Duplicate(); err != nil {
		return e.reject("duplicate", err)
	}
	e.selectionChanged()
	e.commit("duplicate")
	return nil
}

func (e *Editor) Group() error {
	if _, err := e.scene.Group(); err != nil {
		return e.reject("group", err)
	}
	e.selectionChanged()
	e.commit("group")
	return nil
}

func (e *Editor) Ungroup() error {
	if _, err := e.scene.Ungroup(); err != nil {
		return e.reject("ungroup", err)
	}
	e.selectionChanged()
	e.commit("ungroup")
	return nil
}

// Align arranges the selection; see diagram.Scene.Align.
func (e *Editor) Align(mode diagram.AlignMode) error {
	if err := e.scene.Align(mode); err != nil {
		return e.reject("align", err)
	}
	e.commit("align " + string(mode))
	return nil
}

func (e *Editor) BringToFront() {
	if e.scene.BringToFront() {
		e.commit("bring to front")
	}
}

func (e *Editor) SendToBack() {
	if e.scene.SendToBack() {
		e.commit("send to back")
	}
}

func (e *Editor) SelectAll() {
	e.scene.SelectAll()
	e.selectionChanged()
	e.notify.Redraw()
}

func (e *Editor) ClearSelection() {
	e.scene.ClearSelection()
	e.selectionChanged()
	e.notify.Redraw()
}

// Clear removes every shape.
func (e *Editor) Clear() {
	if e.scene.Len() == 0 {
		return
	}
	e.scene.Clear()
	e.selectionChanged()
	e.commit("clear")
}

func (e *Editor) ToggleGrid() {
	e.gridEnabled = !e.gridEnabled
	e.notify.Redraw()
}

func (e *Editor) ToggleSnap() {
	e.snapToGrid = !e.snapToGrid
}

func (e *Editor) ToggleGuidelines() {
	e.guidelinesEnabled = !e.guidelinesEnabled
	if !e.guidelinesEnabled {
		e.guides = nil
	}
	e.notify.Redraw()
}

// SetGridSize changes the grid cell size, clamped to [5, 100].
func (e *Editor) SetGridSize(size float64) {
	e.gridSize = vector.ClampGridSize(size)
	e.notify.Redraw()
}

func (e *Editor) ZoomIn() {
	e.view.ZoomIn()
	e.notify.Redraw()
}

func (e *Editor) ZoomOut() {
	e.view.ZoomOut()
	e.notify.Redraw()
}

func (e *Editor) ResetView() {
	e.view.Reset()
	e.notify.Redraw()
}

// Wheel zooms around the cursor at screen position (x, y).
func (e *Editor) Wheel(deltaY, x, y float64) {
	e.view.Wheel(deltaY, x, y)
	e.notify.Redraw()
}

// StylePatch carries the style fields to change; nil fields are kept.
type StylePatch struct {
	FillColor   *string
	StrokeColor *string
	TextColor   *string
	FontFamily  *string
	StrokeWidth *float64
	FontSize    *float64
}

func (p StylePatch) validate() error {
	for _, c := range []*string{p.FillColor, p.StrokeColor, p.TextColor} {
		if c == nil {
			continue
		}
		if _, err := vector.ParseColor(*c); err != nil {
			return err
		}
	}
	return nil
}

func (p StylePatch) apply(st *diagram.Style) {
	if p.FillColor != nil {
		st.FillColor = *p.FillColor
	}
	if p.StrokeColor != nil {
		st.StrokeColor = *p.StrokeColor
	}
	if p.TextColor != nil {
		st.TextColor = *p.TextColor
	}
	if p.FontFamily != nil {
		st.FontFamily = *p.FontFamily
	}
	if p.StrokeWidth != nil {
		st.StrokeWidth = *p.StrokeWidth
	}
	if p.FontSize != nil {
		st.FontSize = *p.FontSize
	}
	st.Clamp()
}

// SetStyle applies p to every selected shape, descending into groups, as
// one history entry.
func (e *Editor) SetStyle(p StylePatch) error {
	sel := e.scene.Selection()
	if len(sel) == 0 {
		return e.reject("style", diagram.ErrNothingSelected)
	}
	if err := p.validate(); err != nil {
		return e.reject("style", err)
	}
	var visit func(s diagram.Shape)
	visit = func(s diagram.Shape) {
		if g, ok := s.(*diagram.Group); ok {
			for _, c := range g.Children() {
				visit(c)
			}
			return
		}
		p.apply(&s.Geom().Style)
	}
	for _, s := range sel {
		visit(s)
	}
	e.commit("style")
	return nil
}

// SetGeometry moves and sizes the primary selection. Width and height are
// clamped to the minimum shape size; groups scale their children.
func (e *Editor) SetGeometry(x, y, w, h float64) error {
	s := e.scene.Primary()
	if s == nil {
		return e.reject("geometry", diagram.ErrNothingSelected)
	}
	if diagram.IsConnector(s) {
		return e.reject("geometry", ErrConnectorGeometry)
	}
	diagram.MoveTo(s, x, y)
	w = math.Max(diagram.MinShapeSize, w)
	h = math.Max(diagram.MinShapeSize, h)
	s.Resize(diagram.Handle{Kind: diagram.HandleResize, Dir: "se"}, vector.Pt{X: x + w, Y: y + h})
	e.commit("geometry")
	return nil
}

// SetRotation sets the rendering rotation of the primary selection.
func (e *Editor) SetRotation(deg float64) error {
	s := e.scene.Primary()
	if s == nil {
		return e.reject("rotate", diagram.ErrNothingSelected)
	}
	s.Geom().Rotation = math.Mod(deg, 360)
	e.commit("rotate")
	return nil
}

// CommitText stores edited text on the shape with the given id.
func (e *Editor) CommitText(id diagram.ID, text string) error {
	s, ok := e.scene.Lookup(id)
	if !ok {
		return fmt.Errorf("text edit: shape %s not found", id)
	}
	if s.Geom().Text == text {
		return nil
	}
	s.Geom().Text = text
	e.commit("text")
	return nil
}

// Clipboard is the text clipboard used by Copy and Paste.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type memClipboard struct{ text string }

func (m *memClipboard) ReadAll() (string, error) { return m.text, nil }

func (m *memClipboard) WriteAll(text string) error {
	m.text = text
	return nil
}

const clipFormat = "godiagram/shapes"

type clipPayload struct {
	Format string           `json:"format"`
	Shapes []diagram.Record `json:"shapes"`
}

// ErrClipboardEmpty is returned by Paste when the clipboard holds no shapes.
var ErrClipboardEmpty = errors.New("clipboard holds no shapes")

// Copy writes the selected shapes to the clipboard.
func (e *Editor) Copy() error {
	recs := e.scene.SelectedRecords()
	if len(recs) == 0 {
		return e.reject("copy", diagram.ErrNothingSelected)
	}
	data, err := json.Marshal(clipPayload{Format: clipFormat, Shapes: recs})
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if err := e.clip.WriteAll(string(data)); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	e.pasteSeq = 0
	return nil
}

// Cut copies and then deletes the selection.
func (e *Editor) Cut() error {
	if err := e.Copy(); err != nil {
		return err
	}
	e.DeleteSelected()
	return nil
}

// Paste inserts the clipboard shapes with fresh ids. Each paste of the
// same content lands one DuplicateOffset further down and right.
func (e *Editor) Paste() error {
	text, err := e.clip.ReadAll()
	if err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	var p clipPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil || p.Format != clipFormat || len(p.Shapes) == 0 {
		return e.reject("paste", ErrClipboardEmpty)
	}
	e.pasteSeq++
	off := diagram.DuplicateOffset * float64(e.pasteSeq)
	e.scene.Insert(diagram.CloneRecords(p.Shapes, off, off))
	e.selectionChanged()
	e.commit("paste")
	return nil
}
