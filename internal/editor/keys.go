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
	"strings"

	"godiagram/internal/diagram"
)

// Key names understood by KeyPress besides single characters.
const (
	KeyDelete     = "Delete"
	KeyBackspace  = "Backspace"
	KeyEscape     = "Escape"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
)

// KeyPress runs the shortcut bound to key and reports whether one matched.
// Letters are matched case-insensitively.
func (e *Editor) KeyPress(key string, m Modifiers) bool {
	switch key {
	case KeyDelete, KeyBackspace:
		if len(e.scene.Selection()) == 0 {
			return false
		}
		e.DeleteSelected()
		return true
	case KeyEscape:
		e.Escape()
		return true
	}
	if m.Alt {
		return e.altKey(key, m)
	}
	k := strings.ToLower(key)
	if m.Ctrl {
		switch {
		case k == "z" && !m.Shift:
			e.Undo()
		case k == "y", k == "z" && m.Shift:
			e.Redo()
		case k == "a":
			e.SelectAll()
		case k == "g" && m.Shift:
			_ = e.Ungroup()
		case k == "g":
			_ = e.Group()
		case k == "d":
			_ = e.Duplicate()
		case k == "c":
			_ = e.Copy()
		case k == "x":
			_ = e.Cut()
		case k == "v":
			_ = e.Paste()
		default:
			return false
		}
		return true
	}
	switch k {
	case "v":
		e.SetTool(ToolSelect)
	case "h":
		e.SetTool(ToolPan)
	case "+", "=":
		e.ZoomIn()
	case "-", "_":
		e.ZoomOut()
	case "0":
		e.ResetView()
	case "g":
		e.ToggleGrid()
	case "s":
		e.ToggleSnap()
	case "l":
		e.ToggleGuidelines()
	default:
		return false
	}
	return true
}

func (e *Editor) altKey(key string, m Modifiers) bool {
	var mode diagram.AlignMode
	switch strings.ToLower(key) {
	case strings.ToLower(KeyArrowLeft):
		mode = diagram.AlignLeft
	case strings.ToLower(KeyArrowRight):
		mode = diagram.AlignRight
	case strings.ToLower(KeyArrowUp):
		mode = diagram.AlignTop
	case strings.ToLower(KeyArrowDown):
		mode = diagram.AlignBottom
	case "h":
		mode = diagram.AlignCenter
		if m.Shift {
			mode = diagram.DistributeHorizontal
		}
	case "v":
		mode = diagram.AlignMiddle
		if m.Shift {
			mode = diagram.DistributeVertical
		}
	default:
		return false
	}
	_ = e.Align(mode)
	return true
}
