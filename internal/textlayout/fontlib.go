/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores user-supplied OpenType fonts mapped by family/bold/italic.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// LoadTTF loads a font file into the library under the given family/bold/italic.
// Family names are matched case-insensitively.
func (fl *FontLibrary) LoadTTF(family string, bold, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: strings.ToLower(family), bold: bold, italic: italic}] = f
	return nil
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	fam := strings.ToLower(spec.Family)
	if f, ok := fl.fonts[fontKey{family: fam, bold: spec.Bold, italic: spec.Italic}]; ok {
		return f
	}
	// any style of the same family
	for k, f := range fl.fonts {
		if k.family == fam {
			return f
		}
	}
	return nil
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.Size <= 0 {
		spec.Size = 14
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if f := p.Lib.find(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.Size, DPI: dpi, Hinting: font.HintingFull})
		if err == nil {
			return face, metricsOf(face)
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = Default()
	}
	return fb.Resolve(spec)
}

// GoFontProvider serves the embedded Go fonts through freetype. Families
// that look monospaced map to Go Mono, everything else to Go Regular
// (or its bold and italic cuts). Faces are cached per style and size.
type GoFontProvider struct {
	mu    sync.Mutex
	fonts map[string]*truetype.Font
	faces map[faceKey]cachedFace
}

type faceKey struct {
	file string
	size float64
}

type cachedFace struct {
	face font.Face
	met  Metrics
}

var (
	defaultOnce     sync.Once
	defaultProvider *GoFontProvider
)

// Default returns the shared Go font provider.
func Default() *GoFontProvider {
	defaultOnce.Do(func() { defaultProvider = &GoFontProvider{} })
	return defaultProvider
}

func (p *GoFontProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.Size <= 0 {
		spec.Size = 14
	}
	file, ttf := goFontFor(spec)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.faces == nil {
		p.faces = make(map[faceKey]cachedFace)
		p.fonts = make(map[string]*truetype.Font)
	}
	key := faceKey{file: file, size: spec.Size}
	if cf, ok := p.faces[key]; ok {
		return cf.face, cf.met
	}
	f, ok := p.fonts[file]
	if !ok {
		parsed, err := truetype.Parse(ttf)
		if err != nil {
			// the embedded fonts always parse; keep rendering if they ever do not
			return BasicProvider{}.Resolve(spec)
		}
		f = parsed
		p.fonts[file] = f
	}
	face := truetype.NewFace(f, &truetype.Options{Size: spec.Size, DPI: 72, Hinting: font.HintingFull})
	cf := cachedFace{face: face, met: metricsOf(face)}
	p.faces[key] = cf
	return cf.face, cf.met
}

func goFontFor(spec FontSpec) (string, []byte) {
	fam := strings.ToLower(spec.Family)
	switch {
	case strings.Contains(fam, "mono"), strings.Contains(fam, "courier"), strings.Contains(fam, "consol"):
		return "mono", gomono.TTF
	case spec.Bold:
		return "bold", gobold.TTF
	case spec.Italic:
		return "italic", goitalic.TTF
	default:
		return "regular", goregular.TTF
	}
}
