/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor drives a diagram scene from pointer and keyboard input.
// It owns the view transform, the active tool, the interaction state machine
// and the undo history. Frontends feed it screen-space events and repaint
// when the Notifier asks them to.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"godiagram/internal/diagram"
	applog "godiagram/internal/log"
	"godiagram/internal/undo"
	"godiagram/internal/vector"
)

// Config tunes interaction thresholds and the initial view toggles.
type Config struct {
	HistoryLimit    int
	HistoryMaxBytes int
	// SnapThreshold is the guideline snap distance in screen pixels.
	SnapThreshold float64
	// ConnectionSnapDistance is the endpoint snap radius in screen pixels.
	ConnectionSnapDistance float64
	GridSize               float64
	GridEnabled            bool
	SnapToGrid             bool
	GuidelinesEnabled      bool
}

// DefaultConfig returns the stock interaction settings.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:           undo.DefaultLimit,
		SnapThreshold:          10,
		ConnectionSnapDistance: diagram.SnapDistance,
		GridSize:               diagram.DefaultGridSize,
		GridEnabled:            true,
		SnapToGrid:             true,
		GuidelinesEnabled:      true,
	}
}

// Notifier receives events meant for the hosting user interface.
type Notifier interface {
	// Notice shows a short message, e.g. why a command was rejected.
	Notice(msg string)
	SelectionChanged(sel []diagram.Shape)
	Redraw()
	// RequestTextEdit asks the frontend to open a text editor for s.
	// The result comes back through CommitText.
	RequestTextEdit(s diagram.Shape)
}

// NopNotifier ignores all events.
type NopNotifier struct{}

func (NopNotifier) Notice(string)                    {}
func (NopNotifier) SelectionChanged([]diagram.Shape) {}
func (NopNotifier) Redraw()                          {}
func (NopNotifier) RequestTextEdit(diagram.Shape)    {}

// ErrConnectorGeometry is returned when box geometry is set on a connector.
var ErrConnectorGeometry = errors.New("connectors are positioned by their endpoints")

// Editor is the interactive core. It is not safe for concurrent use; the
// frontend calls it from its event loop.
type Editor struct {
	cfg     Config
	log     *slog.Logger
	notify  Notifier
	clip    Clipboard
	history *undo.History

	scene *diagram.Scene
	view  View
	tool  Tool

	gridEnabled       bool
	gridSize          float64
	snapToGrid        bool
	guidelinesEnabled bool

	g      *gesture
	guides []vector.GuideLine
	hover  hover

	dirty    bool
	pasteSeq int
}

// New returns an editor with an empty scene. A nil notifier is replaced by NopNotifier.
func New(cfg Config, n Notifier) *Editor {
	def := DefaultConfig()
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	if cfg.SnapThreshold <= 0 {
		cfg.SnapThreshold = def.SnapThreshold
	}
	if cfg.ConnectionSnapDistance <= 0 {
		cfg.ConnectionSnapDistance = def.ConnectionSnapDistance
	}
	if cfg.GridSize <= 0 {
		cfg.GridSize = def.GridSize
	}
	if n == nil {
		n = NopNotifier{}
	}
	e := &Editor{
		cfg:               cfg,
		log:               applog.WithComponent("editor"),
		notify:            n,
		clip:              &memClipboard{},
		history:           undo.NewHistory(undo.Config{Limit: cfg.HistoryLimit, MaxBytes: cfg.HistoryMaxBytes}),
		scene:             diagram.NewScene(),
		view:              DefaultView(),
		tool:              ToolSelect,
		gridEnabled:       cfg.GridEnabled,
		gridSize:          vector.ClampGridSize(cfg.GridSize),
		snapToGrid:        cfg.SnapToGrid,
		guidelinesEnabled: cfg.GuidelinesEnabled,
	}
	e.resetHistory()
	return e
}

// SetClipboard replaces the in-memory clipboard, e.g. with the system one.
func (e *Editor) SetClipboard(c Clipboard) {
	if c != nil {
		e.clip = c
	}
}

func (e *Editor) Scene() *diagram.Scene   { return e.scene }
func (e *Editor) View() View              { return e.view }
func (e *Editor) Tool() Tool              { return e.tool }
func (e *Editor) History() *undo.History  { return e.history }
func (e *Editor) GridEnabled() bool       { return e.gridEnabled }
func (e *Editor) GridSize() float64       { return e.gridSize }
func (e *Editor) SnapToGrid() bool        { return e.snapToGrid }
func (e *Editor) GuidelinesEnabled() bool { return e.guidelinesEnabled }

// Dirty reports changes since the last load or MarkSaved.
func (e *Editor) Dirty() bool { return e.dirty }
func (e *Editor) MarkSaved()  { e.dirty = false }

// SetView replaces the view, clamping the zoom.
func (e *Editor) SetView(v View) {
	v.Zoom = clampZoom(v.Zoom)
	e.view = v
	e.notify.Redraw()
}

// SetTool switches the pointer mode. A running gesture is cancelled.
func (e *Editor) SetTool(t Tool) {
	if e.g != nil {
		e.cancelGesture()
	}
	e.tool = t
	e.hover = hover{}
	e.notify.Redraw()
}

// Document returns the scene and view settings in persisted form.
func (e *Editor) Document() diagram.Document {
	d := diagram.NewDocument()
	d.Shapes = e.scene.Records()
	d.Zoom = e.view.Zoom
	d.PanX, d.PanY = e.view.PanX, e.view.PanY
	d.GridEnabled = e.gridEnabled
	d.GridSize = e.gridSize
	d.SnapToGrid = e.snapToGrid
	d.GuidelinesEnabled = e.guidelinesEnabled
	return d
}

// Marshal serializes Document.
func (e *Editor) Marshal() ([]byte, error) {
	return diagram.MarshalDocument(e.Document())
}

// Load replaces the scene with a parsed document and resets the history to
// it. On error the current scene stays as it was.
func (e *Editor) Load(data []byte) error {
	l := applog.WithOperation(e.log, "load")
	sc, doc, err := diagram.LoadScene(data)
	if err != nil {
		l.Warn("document rejected", slog.String("err", err.Error()))
		return err
	}
	e.g = nil
	e.guides = nil
	e.hover = hover{}
	e.scene = sc
	e.view = View{Zoom: doc.Zoom, PanX: doc.PanX, PanY: doc.PanY}
	e.gridEnabled = doc.GridEnabled
	e.gridSize = doc.GridSize
	e.snapToGrid = doc.SnapToGrid
	e.guidelinesEnabled = doc.GuidelinesEnabled
	e.resetHistory()
	e.dirty = false
	l.Debug("document loaded", slog.Int("shapes", sc.Len()))
	e.selectionChanged()
	e.notify.Redraw()
	return nil
}

// NewDocument clears the scene and view and starts a fresh history.
func (e *Editor) NewDocument() {
	e.g = nil
	e.guides = nil
	e.hover = hover{}
	e.scene = diagram.NewScene()
	e.view = DefaultView()
	e.tool = ToolSelect
	e.resetHistory()
	e.dirty = false
	e.selectionChanged()
	e.notify.Redraw()
}

// snapshot records the scene together with the view state it was edited in.
func (e *Editor) snapshot(label string) (undo.Snapshot, error) {
	blob, err := diagram.MarshalDocument(e.Document())
	if err != nil {
		return undo.Snapshot{}, fmt.Errorf("snapshot %s: %w", label, err)
	}
	return undo.Snapshot{Blob: blob, Label: label}, nil
}

func (e *Editor) resetHistory() {
	s, err := e.snapshot("baseline")
	if err != nil {
		e.log.Error("baseline snapshot failed", slog.String("err", err.Error()))
		return
	}
	e.history.Reset(s)
}

// commit settles connections and records the scene as a new history entry.
func (e *Editor) commit(label string) {
	e.scene.UpdateAllConnections()
	s, err := e.snapshot(label)
	if err != nil {
		e.log.Error("commit failed", slog.String("op", label), slog.String("err", err.Error()))
		return
	}
	e.history.Push(s)
	e.dirty = true
	e.notify.Redraw()
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// Undo restores the previous snapshot. The selection is cleared.
func (e *Editor) Undo() bool {
	s, ok := e.history.Undo()
	if !ok {
		return false
	}
	return e.restore(s)
}

// Redo restores the next snapshot. The selection is cleared.
func (e *Editor) Redo() bool {
	s, ok := e.history.Redo()
	if !ok {
		return false
	}
	return e.restore(s)
}

// restore rebuilds the scene from a snapshot; the view is left alone.
func (e *Editor) restore(s undo.Snapshot) bool {
	sc, _, err := diagram.LoadScene(s.Blob)
	if err != nil {
		e.log.Error("restore snapshot", slog.String("label", s.Label), slog.String("err", err.Error()))
		return false
	}
	e.g = nil
	e.guides = nil
	e.hover = hover{}
	e.scene = sc
	e.dirty = true
	e.selectionChanged()
	e.notify.Redraw()
	return true
}

// reject reports an invalid command to the user and returns err unchanged.
func (e *Editor) reject(op string, err error) error {
	e.log.Debug("command rejected", slog.String("op", op), slog.String("err", err.Error()))
	e.notify.Notice(err.Error())
	return err
}

func (e *Editor) selectionChanged() {
	e.notify.SelectionChanged(e.scene.Selection())
}
