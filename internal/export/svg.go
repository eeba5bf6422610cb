/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"godiagram/internal/diagram"
	"godiagram/internal/textlayout"
	"godiagram/internal/vector"
)

// WriteSVG writes one <path> per painted part and one <text> per label
// line. Coordinates stay in document units; the frame offset is a group
// translation and Scale only affects the width/height attributes.
func WriteSVG(w io.Writer, sc *diagram.Scene, opt Options) error {
	opt = opt.withDefaults()
	shapes := sc.Shapes()
	frame := Frame(shapes, opt)

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n",
		frame.W*opt.Scale, frame.H*opt.Scale, frame.W, frame.H)
	wf("  <rect width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", frame.W, frame.H)
	wf("  <g transform=\"translate(%g,%g)\">\n", -frame.X, -frame.Y)
	for _, s := range shapes {
		for _, part := range diagram.Parts(s) {
			if part.Path.Empty() {
				continue
			}
			wf("    <path d=\"%s\"%s/>\n", part.Path.SVGData(), svgPaint(part.Paint))
		}
		for _, l := range diagram.Labels(s) {
			spec := textlayout.FontSpec{Family: l.FontFamily, Size: l.FontSize}
			block := textlayout.Center(opt.Fonts, spec, l.Text, l.Box)
			indent := "    "
			if l.Rotation != 0 {
				c := l.Box.Center()
				wf("    <g transform=\"rotate(%g %g %g)\">\n", l.Rotation, c.X, c.Y)
				indent += "  "
			}
			for _, line := range block.Lines {
				if strings.TrimSpace(line.Text) == "" {
					continue
				}
				wf("%s<text x=\"%g\" y=\"%g\" text-anchor=\"middle\" font-family=\"%s\" font-size=\"%g\" fill=\"%s\">%s</text>\n",
					indent, line.Center.X, block.Baseline(line.Center.Y), escXML(fontFamilyOr(l.FontFamily)), l.FontSize, l.Color.Hex(), escXML(line.Text))
			}
			if l.Rotation != 0 {
				wf("    </g>\n")
			}
		}
	}
	wf("  </g>\n")
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgPaint(p vector.Paint) string {
	var b strings.Builder
	if p.HasFill() {
		fmt.Fprintf(&b, " fill=\"%s\"", p.Fill.Hex())
		if p.Fill.A < 255 {
			fmt.Fprintf(&b, " fill-opacity=\"%.3g\"", float64(p.Fill.A)/255)
		}
	} else {
		b.WriteString(" fill=\"none\"")
	}
	if p.HasStroke() {
		fmt.Fprintf(&b, " stroke=\"%s\" stroke-width=\"%g\" stroke-linejoin=\"round\"", p.Stroke.Hex(), p.StrokeWidth)
		if p.Stroke.A < 255 {
			fmt.Fprintf(&b, " stroke-opacity=\"%.3g\"", float64(p.Stroke.A)/255)
		}
	}
	return b.String()
}

func fontFamilyOr(f string) string {
	if strings.TrimSpace(f) == "" {
		return "Arial, sans-serif"
	}
	return f
}

// escXML escapes text and attribute values; quotes and newlines included.
func escXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
