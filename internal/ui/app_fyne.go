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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"godiagram/internal/backend"
	"godiagram/internal/clipboard"
	"godiagram/internal/config"
	"godiagram/internal/crash"
	"godiagram/internal/diagram"
	"godiagram/internal/editor"
	"godiagram/internal/export"
	applog "godiagram/internal/log"
	"godiagram/internal/storage"
	"godiagram/internal/version"
)

// statusNotifier routes editor notifications to the window.
type statusNotifier struct {
	w      fyne.Window
	status *widget.Label
	ed     *editor.Editor
	// set once the widgets exist
	canvas   *DiagramCanvas
	onRedraw func()
	onSelect func([]diagram.Shape)
}

func (n *statusNotifier) Notice(msg string) { n.status.SetText(msg) }

func (n *statusNotifier) SelectionChanged(sel []diagram.Shape) {
	switch len(sel) {
	case 0:
		n.status.SetText("Ready")
	case 1:
		n.status.SetText(fmt.Sprintf("Selected %s", sel[0].Kind()))
	default:
		n.status.SetText(fmt.Sprintf("Selected %d shapes", len(sel)))
	}
	if n.onSelect != nil {
		n.onSelect(sel)
	}
}

func (n *statusNotifier) Redraw() {
	if n.canvas != nil {
		n.canvas.Refresh()
	}
	if n.onRedraw != nil {
		n.onRedraw()
	}
}

// RequestTextEdit opens a modal editor for the shape's label.
func (n *statusNotifier) RequestTextEdit(s diagram.Shape) {
	entry := widget.NewMultiLineEntry()
	entry.SetText(s.Geom().Text)
	entry.SetMinRowsVisible(4)
	id := s.ID()
	dialog.ShowForm("Edit text", "Apply", "Cancel", []*widget.FormItem{widget.NewFormItem("Text", entry)}, func(ok bool) {
		if !ok {
			return
		}
		if err := n.ed.CommitText(id, entry.Text); err != nil {
			n.status.SetText(err.Error())
		}
	}, n.w)
}

// Run starts the desktop editor and opens file when it is not empty.
func Run(file string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config load failed; using defaults", slog.Any("err", err))
	}

	fyneApp := app.NewWithID("godiagram")
	w := fyneApp.NewWindow("GoDiagram")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	notifier := &statusNotifier{w: w, status: status}
	ed := editor.New(editorConfig(cfg.Editor), notifier)
	ed.SetClipboard(clipboard.New())
	notifier.ed = ed
	dc := NewDiagramCanvas(ed)
	notifier.canvas = dc

	sess := NewSession(ed, cfg)
	defer crash.Recover(sess.Target)
	defer sess.Close()
	ctx := context.Background()

	var refreshRecent func()
	showErr := func(op string, err error) {
		l.Error(op+" failed", slog.Any("err", err))
		dialog.ShowError(err, w)
	}
	openFile := func(path string) {
		h, err := sess.Open(path)
		if err != nil {
			showErr("open", err)
			return
		}
		addRecentFile(prefs, h.Path)
		refreshRecent()
		status.SetText("Opened " + h.Path)
		if h.FromBackup != "" {
			dialog.ShowInformation("Recovered", "The document was damaged; loaded backup "+filepath.Base(h.FromBackup), w)
		}
		w.SetTitle(sess.Title())
	}
	saveAsDialog := func() {
		d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			if err := sess.SaveAs(ctx, path); err != nil {
				showErr("save as", err)
				return
			}
			addRecentFile(prefs, sess.Doc.Path)
			refreshRecent()
			status.SetText("Saved " + sess.Doc.Path)
			w.SetTitle(sess.Title())
		}, w)
		d.SetFileName("diagram" + storage.DocumentExt)
		d.Show()
	}
	save := func() {
		if sess.Doc == nil {
			saveAsDialog()
			return
		}
		if err := sess.Save(ctx); err != nil {
			showErr("save", err)
			return
		}
		status.SetText("Saved " + sess.Doc.Path)
		w.SetTitle(sess.Title())
	}
	// confirmDiscard runs next directly or after the user accepts losing changes.
	confirmDiscard := func(next func()) {
		if !ed.Dirty() {
			next()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Discard the changes to the current diagram?", func(ok bool) {
			if ok {
				next()
			}
		}, w)
	}
	newDoc := func() { confirmDiscard(func() { sess.New(); w.SetTitle(sess.Title()) }) }
	openDialog := func() {
		confirmDiscard(func() {
			d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
				if err != nil || rc == nil {
					return
				}
				path := rc.URI().Path()
				_ = rc.Close()
				openFile(path)
			}, w)
			d.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
			d.Show()
		})
	}
	exportOptions := func() export.Options {
		title := "Untitled"
		if sess.Doc != nil {
			title = storage.DocName(sess.Doc.Path)
		}
		return export.Options{
			Padding:        cfg.Export.Padding,
			PaddingSet:     true,
			JPEGQuality:    cfg.Export.JPEGQuality,
			FallbackWidth:  cfg.Export.FallbackWidth,
			FallbackHeight: cfg.Export.FallbackHeight,
			Title:          title,
		}
	}
	exportDialog := func(f export.Format) {
		d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			if err := export.ExportFile(path, f, ed.Scene(), exportOptions()); err != nil {
				showErr("export", err)
				return
			}
			status.SetText("Exported " + path)
		}, w)
		name := "diagram"
		if sess.Doc != nil {
			name = storage.DocName(sess.Doc.Path)
		}
		d.SetFileName(name + f.Ext())
		d.SetFilter(fstorage.NewExtensionFileFilter([]string{f.Ext()}))
		d.Show()
	}
	batchExport := func(p export.PresetName) {
		if sess.Doc == nil {
			dialog.ShowInformation("Export", "Save the diagram before a batch export.", w)
			return
		}
		files, err := export.BatchExport(sess.Doc.Path, ed.Scene(), export.BatchOptions{Preset: p, Options: exportOptions()})
		if err != nil {
			showErr("batch export", err)
			return
		}
		status.SetText(fmt.Sprintf("Exported %d files", len(files)))
	}
	historyDialog := func() {
		revs, err := sess.History(ctx, 50)
		if err != nil {
			dialog.ShowInformation("History", "Save the diagram to start recording revisions.", w)
			return
		}
		showHistoryDialog(w, sess, revs, func(id int64) {
			if err := sess.Restore(ctx, id); err != nil {
				showErr("restore", err)
				return
			}
			status.SetText(fmt.Sprintf("Restored revision %d", id))
			w.SetTitle(sess.Title())
		})
	}

	// Toolbar: tool picker, view toggles and arrange actions.
	toolNames := []string{"select", "pan", "rectangle", "rounded", "circle", "diamond", "parallelogram", "document", "database", "text", "arrow", "line"}
	toolSelect := widget.NewSelect(toolNames, func(name string) {
		if t, err := editor.ParseTool(name); err == nil && t != ed.Tool() {
			ed.SetTool(t)
		}
	})
	toolSelect.SetSelected(string(ed.Tool()))
	gridCheck := widget.NewCheck("Grid", func(on bool) {
		if on != ed.GridEnabled() {
			ed.ToggleGrid()
		}
	})
	snapCheck := widget.NewCheck("Snap", func(on bool) {
		if on != ed.SnapToGrid() {
			ed.ToggleSnap()
		}
	})
	guideCheck := widget.NewCheck("Guides", func(on bool) {
		if on != ed.GuidelinesEnabled() {
			ed.ToggleGuidelines()
		}
	})
	zoomLabel := widget.NewLabel("100%")
	alignModes := []string{
		string(diagram.AlignLeft), string(diagram.AlignCenter), string(diagram.AlignRight),
		string(diagram.AlignTop), string(diagram.AlignMiddle), string(diagram.AlignBottom),
		string(diagram.DistributeHorizontal), string(diagram.DistributeVertical),
	}
	var alignSelect *widget.Select
	alignSelect = widget.NewSelect(alignModes, func(mode string) {
		if mode == "" {
			return
		}
		_ = ed.Align(diagram.AlignMode(mode))
		alignSelect.ClearSelected()
	})
	alignSelect.PlaceHolder = "Align…"

	syncControls := func() {
		if toolSelect.Selected != string(ed.Tool()) {
			toolSelect.SetSelected(string(ed.Tool()))
		}
		if gridCheck.Checked != ed.GridEnabled() {
			gridCheck.SetChecked(ed.GridEnabled())
		}
		if snapCheck.Checked != ed.SnapToGrid() {
			snapCheck.SetChecked(ed.SnapToGrid())
		}
		if guideCheck.Checked != ed.GuidelinesEnabled() {
			guideCheck.SetChecked(ed.GuidelinesEnabled())
		}
		if z := fmt.Sprintf("%.0f%%", ed.View().Zoom*100); zoomLabel.Text != z {
			zoomLabel.SetText(z)
		}
		if t := sess.Title(); w.Title() != t {
			w.SetTitle(t)
		}
	}
	gridCheck.SetChecked(ed.GridEnabled())
	snapCheck.SetChecked(ed.SnapToGrid())
	guideCheck.SetChecked(ed.GuidelinesEnabled())

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), newDoc),
		widget.NewToolbarAction(theme.FolderOpenIcon(), openDialog),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), save),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { ed.Undo() }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { ed.Redo() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentCutIcon(), func() { _ = ed.Cut() }),
		widget.NewToolbarAction(theme.ContentCopyIcon(), func() { _ = ed.Copy() }),
		widget.NewToolbarAction(theme.ContentPasteIcon(), func() { _ = ed.Paste() }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { ed.DeleteSelected() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), ed.ZoomOut),
		widget.NewToolbarAction(theme.ZoomFitIcon(), ed.ResetView),
		widget.NewToolbarAction(theme.ZoomInIcon(), ed.ZoomIn),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.HistoryIcon(), historyDialog),
		widget.NewToolbarAction(theme.DownloadIcon(), func() {
			f, err := export.ParseFormat(cfg.Export.DefaultFormat)
			if err != nil {
				f = export.FormatPNG
			}
			exportDialog(f)
		}),
	)
	controls := container.NewHBox(
		widget.NewLabel("Tool"), toolSelect,
		gridCheck, snapCheck, guideCheck,
		alignSelect,
		widget.NewButton("Group", func() { _ = ed.Group() }),
		widget.NewButton("Ungroup", func() { _ = ed.Ungroup() }),
		widget.NewButton("Front", ed.BringToFront),
		widget.NewButton("Back", ed.SendToBack),
		zoomLabel,
	)

	props := newPropertiesPanel(ed)
	notifier.onSelect = props.show
	notifier.onRedraw = syncControls

	statusBar := container.NewHBox(status, widget.NewLabel(""), widget.NewLabel(version.String()))
	content := container.NewBorder(
		container.NewVBox(toolbar, controls),
		statusBar,
		nil,
		container.NewVScroll(props.box),
		dc,
	)
	w.SetContent(content)

	// Menus
	recentMenu := fyne.NewMenuItem("Open Recent", nil)
	refreshRecent = func() {
		var items []*fyne.MenuItem
		for _, p := range loadRecentFiles(prefs) {
			path := p
			items = append(items, fyne.NewMenuItem(path, func() { confirmDiscard(func() { openFile(path) }) }))
		}
		if len(items) == 0 {
			items = append(items, fyne.NewMenuItem("(none)", nil))
		}
		recentMenu.ChildMenu = fyne.NewMenu("", items...)
		if mm := w.MainMenu(); mm != nil {
			mm.Refresh()
		}
	}
	refreshRecent()

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New", newDoc),
		fyne.NewMenuItem("Open…", openDialog),
		recentMenu,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save", save),
		fyne.NewMenuItem("Save As…", saveAsDialog),
		fyne.NewMenuItem("History…", historyDialog),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG…", func() { exportDialog(export.FormatPNG) }),
		fyne.NewMenuItem("Export JPEG…", func() { exportDialog(export.FormatJPEG) }),
		fyne.NewMenuItem("Export SVG…", func() { exportDialog(export.FormatSVG) }),
		fyne.NewMenuItem("Export PDF…", func() { exportDialog(export.FormatPDF) }),
		fyne.NewMenuItem("Batch Export (web)", func() { batchExport(export.PresetWeb) }),
		fyne.NewMenuItem("Batch Export (print)", func() { batchExport(export.PresetPrint) }),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", func() { ed.Undo() }),
		fyne.NewMenuItem("Redo", func() { ed.Redo() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Cut", func() { _ = ed.Cut() }),
		fyne.NewMenuItem("Copy", func() { _ = ed.Copy() }),
		fyne.NewMenuItem("Paste", func() { _ = ed.Paste() }),
		fyne.NewMenuItem("Duplicate", func() { _ = ed.Duplicate() }),
		fyne.NewMenuItem("Delete", func() { ed.DeleteSelected() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Select All", ed.SelectAll),
		fyne.NewMenuItem("Clear Canvas", func() {
			dialog.ShowConfirm("Clear canvas", "Remove all shapes?", func(ok bool) {
				if ok {
					ed.Clear()
				}
			}, w)
		}),
	)
	arrangeItems := []*fyne.MenuItem{
		fyne.NewMenuItem("Group", func() { _ = ed.Group() }),
		fyne.NewMenuItem("Ungroup", func() { _ = ed.Ungroup() }),
		fyne.NewMenuItem("Bring to Front", ed.BringToFront),
		fyne.NewMenuItem("Send to Back", ed.SendToBack),
		fyne.NewMenuItemSeparator(),
	}
	for _, m := range alignModes {
		mode := diagram.AlignMode(m)
		arrangeItems = append(arrangeItems, fyne.NewMenuItem("Align "+m, func() { _ = ed.Align(mode) }))
	}
	arrangeMenu := fyne.NewMenu("Arrange", arrangeItems...)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", ed.ZoomIn),
		fyne.NewMenuItem("Zoom Out", ed.ZoomOut),
		fyne.NewMenuItem("Reset View", ed.ResetView),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Toggle Grid", ed.ToggleGrid),
		fyne.NewMenuItem("Toggle Snap", ed.ToggleSnap),
		fyne.NewMenuItem("Toggle Guidelines", ed.ToggleGuidelines),
		fyne.NewMenuItem("Grid Size…", func() { showGridSizeDialog(w, ed) }),
	)
	libraryMenu := fyne.NewMenu("Library",
		fyne.NewMenuItem("Log In…", func() { showLoginDialog(w, cfg.Library, status) }),
		fyne.NewMenuItem("Publish", func() { publishToLibrary(w, cfg.Library, sess, status) }),
		fyne.NewMenuItem("Open from Library…", func() {
			confirmDiscard(func() { showLibraryDialog(w, cfg.Library, sess, status) })
		}),
	)
	aboutItem := fyne.NewMenuItem("About GoDiagram", func() {
		exe, _ := os.Executable()
		info := fmt.Sprintf("GoDiagram\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("About", info, w)
	})
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, arrangeMenu, viewMenu, libraryMenu, fyne.NewMenu("Help", aboutItem)))

	// Autosave into the document's revision store.
	done := make(chan struct{})
	if iv := cfg.General.AutosaveInterval(); iv > 0 {
		go func() {
			t := time.NewTicker(iv)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-t.C:
					fyne.Do(func() {
						id, err := sess.Autosave(ctx)
						if err != nil {
							l.Warn("autosave failed", slog.Any("err", err))
						} else if id > 0 {
							status.SetText(fmt.Sprintf("Autosaved revision %d", id))
						}
					})
				}
			}
		}()
	}

	// Persist preferences on close
	w.SetCloseIntercept(func() {
		closeNow := func() {
			close(done)
			sz := w.Canvas().Size()
			prefs.SetInt("window.width", int(sz.Width))
			prefs.SetInt("window.height", int(sz.Height))
			w.Close()
		}
		confirmDiscard(closeNow)
	})

	if file != "" {
		openFile(file)
	}
	w.SetTitle(sess.Title())
	w.Canvas().Focus(dc)
	w.ShowAndRun()
	return nil
}

// propertiesPanel edits style and geometry of the selection.
type propertiesPanel struct {
	ed  *editor.Editor
	box *fyne.Container

	fill, stroke, textColor *widget.Entry
	width, fontSize         *widget.Entry
	x, y, w, h, rotation    *widget.Entry
}

func newPropertiesPanel(ed *editor.Editor) *propertiesPanel {
	p := &propertiesPanel{ed: ed}
	entry := func() *widget.Entry { return widget.NewEntry() }
	p.fill, p.stroke, p.textColor = entry(), entry(), entry()
	p.width, p.fontSize = entry(), entry()
	p.x, p.y, p.w, p.h, p.rotation = entry(), entry(), entry(), entry(), entry()

	style := widget.NewForm(
		widget.NewFormItem("Fill", p.fill),
		widget.NewFormItem("Stroke", p.stroke),
		widget.NewFormItem("Width", p.width),
		widget.NewFormItem("Text", p.textColor),
		widget.NewFormItem("Font", p.fontSize),
	)
	geom := widget.NewForm(
		widget.NewFormItem("X", p.x),
		widget.NewFormItem("Y", p.y),
		widget.NewFormItem("W", p.w),
		widget.NewFormItem("H", p.h),
		widget.NewFormItem("Rotate", p.rotation),
	)
	p.box = container.NewVBox(
		widget.NewLabelWithStyle("Style", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		style,
		widget.NewButton("Apply style", p.applyStyle),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Geometry", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		geom,
		widget.NewButton("Apply geometry", p.applyGeometry),
	)
	p.show(nil)
	return p
}

func (p *propertiesPanel) show(sel []diagram.Shape) {
	if len(sel) == 0 {
		p.box.Hide()
		return
	}
	s := p.ed.Scene().Primary()
	if s == nil {
		s = sel[0]
	}
	b := s.Geom()
	p.fill.SetText(b.FillColor)
	p.stroke.SetText(b.StrokeColor)
	p.textColor.SetText(b.TextColor)
	p.width.SetText(formatNum(b.StrokeWidth))
	p.fontSize.SetText(formatNum(b.FontSize))
	p.x.SetText(formatNum(b.X))
	p.y.SetText(formatNum(b.Y))
	p.w.SetText(formatNum(b.Width))
	p.h.SetText(formatNum(b.Height))
	p.rotation.SetText(formatNum(b.Rotation))
	p.box.Show()
}

func (p *propertiesPanel) applyStyle() {
	fill, stroke, text := p.fill.Text, p.stroke.Text, p.textColor.Text
	patch := editor.StylePatch{FillColor: &fill, StrokeColor: &stroke, TextColor: &text}
	if v, err := strconv.ParseFloat(p.width.Text, 64); err == nil {
		patch.StrokeWidth = &v
	}
	if v, err := strconv.ParseFloat(p.fontSize.Text, 64); err == nil {
		patch.FontSize = &v
	}
	_ = p.ed.SetStyle(patch)
}

func (p *propertiesPanel) applyGeometry() {
	var vals [4]float64
	for i, e := range []*widget.Entry{p.x, p.y, p.w, p.h} {
		v, err := strconv.ParseFloat(e.Text, 64)
		if err != nil {
			return
		}
		vals[i] = v
	}
	s := p.ed.Scene().Primary()
	if s != nil && !diagram.IsConnector(s) {
		_ = p.ed.SetGeometry(vals[0], vals[1], vals[2], vals[3])
	}
	if r, err := strconv.ParseFloat(p.rotation.Text, 64); err == nil && s != nil && r != s.Geom().Rotation {
		_ = p.ed.SetRotation(r)
	}
}

func formatNum(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func showGridSizeDialog(w fyne.Window, ed *editor.Editor) {
	entry := widget.NewEntry()
	entry.SetText(formatNum(ed.GridSize()))
	dialog.ShowForm("Grid size", "Apply", "Cancel", []*widget.FormItem{widget.NewFormItem("Size", entry)}, func(ok bool) {
		if !ok {
			return
		}
		if v, err := strconv.ParseFloat(entry.Text, 64); err == nil {
			ed.SetGridSize(v)
		}
	}, w)
}

// showHistoryDialog lists revisions with a preview of the selected one.
func showHistoryDialog(w fyne.Window, sess *Session, revs []storage.Revision, restore func(id int64)) {
	if len(revs) == 0 {
		dialog.ShowInformation("History", "No revisions recorded yet.", w)
		return
	}
	preview := canvas.NewImageFromResource(nil)
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(ThumbnailSize, ThumbnailSize))
	selected := int64(0)

	list := widget.NewList(
		func() int { return len(revs) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			r := revs[i]
			label := r.TS.Local().Format("2006-01-02 15:04:05") + "  " + string(r.Kind)
			if r.Label != "" {
				label += "  " + r.Label
			}
			o.(*widget.Label).SetText(label)
		},
	)
	list.OnSelected = func(i widget.ListItemID) {
		selected = revs[i].ID
		png, err := Preview(context.Background(), sess.Revisions(), selected)
		if err != nil {
			preview.Resource = nil
		} else {
			preview.Resource = fyne.NewStaticResource(fmt.Sprintf("revision-%d.png", selected), png)
		}
		preview.Refresh()
	}

	var d dialog.Dialog
	restoreBtn := widget.NewButtonWithIcon("Restore", theme.HistoryIcon(), func() {
		if selected == 0 {
			return
		}
		d.Hide()
		restore(selected)
	})
	body := container.NewBorder(nil, restoreBtn, nil, preview, list)
	d = dialog.NewCustom("History", "Close", body, w)
	d.Resize(fyne.NewSize(640, 420))
	d.Show()
}

func libraryClient(lc config.LibraryConfig) *backend.Client {
	tok, _ := config.Token()
	return backend.NewClient(lc.BaseURL, tok, lc.Timeout(), lc.TLSInsecure)
}

func showLoginDialog(w fyne.Window, lc config.LibraryConfig, status *widget.Label) {
	email := widget.NewEntry()
	pw := widget.NewPasswordEntry()
	items := []*widget.FormItem{widget.NewFormItem("Email", email), widget.NewFormItem("Password", pw)}
	dialog.ShowForm("Library login", "Log In", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		cl := libraryClient(lc)
		go func() {
			res, err := cl.Login(context.Background(), email.Text, pw.Text)
			if err == nil {
				err = config.SetToken(res.Token)
			}
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				status.SetText("Logged in as " + res.User.DisplayName)
			})
		}()
	}, w)
}

func publishToLibrary(w fyne.Window, lc config.LibraryConfig, sess *Session, status *widget.Label) {
	data, err := storage.EncodeDocument(sess.Ed.Document())
	if err != nil {
		dialog.ShowError(err, w)
		return
	}
	name := "Untitled"
	if sess.Doc != nil {
		name = storage.DocName(sess.Doc.Path)
	}
	cl := libraryClient(lc)
	go func() {
		info, err := cl.Publish(context.Background(), "", name, data)
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText(fmt.Sprintf("Published %s as %s v%d", info.Name, info.ID, info.Version))
		})
	}()
}

// showLibraryDialog lists the user's published diagrams and loads the
// chosen one as a new unsaved document.
func showLibraryDialog(w fyne.Window, lc config.LibraryConfig, sess *Session, status *widget.Label) {
	cl := libraryClient(lc)
	go func() {
		list, err := cl.List(context.Background())
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if len(list) == 0 {
				dialog.ShowInformation("Library", "No published diagrams.", w)
				return
			}
			var d dialog.Dialog
			lw := widget.NewList(
				func() int { return len(list) },
				func() fyne.CanvasObject { return widget.NewLabel("") },
				func(i widget.ListItemID, o fyne.CanvasObject) {
					it := list[i]
					o.(*widget.Label).SetText(fmt.Sprintf("%s  v%d  %d shapes", it.Name, it.Version, it.Shapes))
				},
			)
			lw.OnSelected = func(i widget.ListItemID) {
				d.Hide()
				fetchFromLibrary(w, cl, list[i].ID, sess, status)
			}
			d = dialog.NewCustom("Library", "Cancel", lw, w)
			d.Resize(fyne.NewSize(480, 360))
			d.Show()
		})
	}()
}

func fetchFromLibrary(w fyne.Window, cl *backend.Client, id string, sess *Session, status *widget.Label) {
	go func() {
		p, err := cl.Fetch(context.Background(), id, 0)
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			sess.New()
			if err := sess.Ed.Load(p.Document); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText(fmt.Sprintf("Loaded %s v%d from the library", p.Name, p.Version))
		})
	}()
}

// Recent file persistence helpers
const recentPrefsKey = "recent.files"
const recentMax = 10

func loadRecentFiles(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		var tmp []string
		if err := json.Unmarshal([]byte(raw), &tmp); err == nil {
			items = tmp
		}
	}
	// Filter out files that no longer exist
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := os.Stat(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func saveRecentFiles(p fyne.Preferences, items []string) {
	if len(items) > recentMax {
		items = items[:recentMax]
	}
	b, _ := json.Marshal(items)
	p.SetString(recentPrefsKey, string(b))
}

func addRecentFile(p fyne.Preferences, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	abs, _ := filepath.Abs(path)
	rec := loadRecentFiles(p)
	out := make([]string, 0, 1+len(rec))
	out = append(out, abs)
	for _, s := range rec {
		// de-dup (case-insensitive on Windows)
		if strings.EqualFold(s, abs) {
			continue
		}
		out = append(out, s)
	}
	saveRecentFiles(p, out)
}
