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
	"fmt"
	"strings"

	"godiagram/internal/diagram"
)

// Tool is the active pointer mode.
type Tool string

const (
	ToolSelect        Tool = "select"
	ToolPan           Tool = "pan"
	ToolRectangle     Tool = "rectangle"
	ToolRounded       Tool = "rounded"
	ToolCircle        Tool = "circle"
	ToolDiamond       Tool = "diamond"
	ToolParallelogram Tool = "parallelogram"
	ToolDocument      Tool = "document"
	ToolDatabase      Tool = "database"
	ToolText          Tool = "text"
	ToolArrow         Tool = "arrow"
	ToolLine          Tool = "line"
)

var toolKinds = map[Tool]diagram.Kind{
	ToolRectangle:     diagram.KindRectangle,
	ToolRounded:       diagram.KindRoundedRectangle,
	ToolCircle:        diagram.KindCircle,
	ToolDiamond:       diagram.KindDiamond,
	ToolParallelogram: diagram.KindParallelogram,
	ToolDocument:      diagram.KindDocument,
	ToolDatabase:      diagram.KindDatabase,
	ToolText:          diagram.KindTextBox,
	ToolArrow:         diagram.KindArrow,
	ToolLine:          diagram.KindLine,
}

// flowchart names accepted as aliases
var toolAliases = map[string]Tool{
	"process":    ToolRectangle,
	"decision":   ToolDiamond,
	"terminator": ToolRounded,
	"data":       ToolParallelogram,
}

// ParseTool resolves a tool name or flowchart alias.
func ParseTool(name string) (Tool, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if t, ok := toolAliases[n]; ok {
		return t, nil
	}
	t := Tool(n)
	if t == ToolSelect || t == ToolPan {
		return t, nil
	}
	if _, ok := toolKinds[t]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

// Kind returns the shape kind drawn by t. ok is false for select and pan.
func (t Tool) Kind() (diagram.Kind, bool) {
	k, ok := toolKinds[t]
	return k, ok
}

// Draws reports whether t creates shapes.
func (t Tool) Draws() bool {
	_, ok := toolKinds[t]
	return ok
}
