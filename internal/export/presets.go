/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"godiagram/internal/diagram"
	"godiagram/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// ParsePreset validates a preset name.
func ParsePreset(s string) (PresetName, error) {
	switch p := PresetName(strings.ToLower(strings.TrimSpace(s))); p {
	case PresetWeb, PresetPrint:
		return p, nil
	}
	return "", fmt.Errorf("unknown preset: %q", s)
}

// BatchOptions controls batch export of one document in several formats.
//
// Path semantics:
//   - If OutDir is empty it defaults to <document dir>/exports/<preset>.
//   - Each format writes <name><ext> into OutDir, name being the document
//     name without extension.
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: png, jpeg, svg, pdf; empty means preset defaults
	OutDir  string
	Name    string
	Options Options
}

// BatchExport runs exports according to the given preset and returns the
// written files in format order.
func BatchExport(docPath string, sc *diagram.Scene, opt BatchOptions) ([]string, error) {
	if sc == nil {
		return nil, fmt.Errorf("scene is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		preset := string(opt.Preset)
		if preset == "" {
			preset = "default"
		}
		baseOut = filepath.Join(filepath.Dir(docPath), "exports", preset)
	}
	name := opt.Name
	if name == "" {
		name = storage.DocName(docPath)
	}

	var written []string
	for _, raw := range formats {
		f, err := ParseFormat(raw)
		if err != nil {
			return written, err
		}
		o := opt.Options
		if o.Scale <= 0 {
			o.Scale = presetScale(opt.Preset, f)
		}
		out := filepath.Join(baseOut, name+f.Ext())
		if err := ExportFile(out, f, sc, o); err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		written = append(written, out)
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"png"}
	}
}

// presetScale doubles raster resolution for print.
func presetScale(p PresetName, f Format) float64 {
	if p == PresetPrint && (f == FormatPNG || f == FormatJPEG) {
		return 2
	}
	return 1
}
