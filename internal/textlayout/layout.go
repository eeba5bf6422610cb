/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and word-wraps shape labels. All renderers go
// through it so PNG, SVG, PDF and the canvas break lines at the same words.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"godiagram/internal/vector"
)

const (
	// LineHeightFactor scales the font size to the baseline distance.
	LineHeightFactor = 1.2
	// WrapInset is subtracted from the box width to get the wrap width.
	WrapInset = 10.0
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name, e.g. "Arial" or "monospace"
	Size   float64
	Bold   bool
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
// It ignores the requested size.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Measure returns the advance width of s in pixels.
func Measure(p Provider, spec FontSpec, s string) float64 {
	if p == nil {
		p = Default()
	}
	face, _ := p.Resolve(spec)
	d := &font.Drawer{Face: face}
	return float64(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

// Wrap splits text at newlines and then greedily at spaces so that no line
// is wider than maxWidth, unless a single word already is. Empty lines are
// kept. maxWidth <= 0 disables wrapping.
func Wrap(p Provider, spec FontSpec, text string, maxWidth float64) []string {
	if p == nil {
		p = Default()
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		if maxWidth <= 0 {
			out = append(out, para)
			continue
		}
		line := ""
		for _, word := range strings.Split(para, " ") {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if line != "" && Measure(p, spec, candidate) > maxWidth {
				out = append(out, line)
				line = word
				continue
			}
			line = candidate
		}
		out = append(out, line)
	}
	return out
}

// Line is one laid out line. Center is the middle of the line box.
type Line struct {
	Text   string
	Width  float64
	Center vector.Pt
}

// Block is text laid out centered in a box.
type Block struct {
	Lines      []Line
	Font       FontSpec
	Metrics    Metrics
	LineHeight float64
	Width      float64
	Height     float64
}

// Center wraps text to box.W-WrapInset and stacks the lines around the box
// center with a pitch of LineHeightFactor×size.
func Center(p Provider, spec FontSpec, text string, box vector.Rect) Block {
	if p == nil {
		p = Default()
	}
	_, met := p.Resolve(spec)
	lh := spec.Size * LineHeightFactor
	lines := Wrap(p, spec, text, box.W-WrapInset)
	c := box.Center()
	top := c.Y - float64(len(lines)-1)*lh/2
	b := Block{Font: spec, Metrics: met, LineHeight: lh, Height: float64(len(lines)) * lh}
	for i, s := range lines {
		w := Measure(p, spec, s)
		if w > b.Width {
			b.Width = w
		}
		b.Lines = append(b.Lines, Line{Text: s, Width: w, Center: vector.Pt{X: c.X, Y: top + float64(i)*lh}})
	}
	return b
}

// Baseline returns the baseline y for a line centered vertically at cy.
func (b Block) Baseline(cy float64) float64 {
	return cy + (b.Metrics.Ascent-b.Metrics.Descent)/2
}
