/*
 * Copyright (c) 2025
 */
package export

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestBatchExport_WebPreset(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "flow.gdg.json")
	sc, _ := sampleScene()
	files, err := BatchExport(doc, sc, BatchOptions{Preset: PresetWeb})
	if err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	checks := []string{
		filepath.Join(root, "exports", "web", "flow.png"),
		filepath.Join(root, "exports", "web", "flow.svg"),
	}
	if len(files) != len(checks) {
		t.Fatalf("written: %v", files)
	}
	for i, p := range checks {
		if files[i] != p {
			t.Fatalf("file %d: got %s want %s", i, files[i], p)
		}
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatchExport_PrintPreset(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "flow.gdg.json")
	sc, _ := sampleScene()
	if _, err := BatchExport(doc, sc, BatchOptions{Preset: PresetPrint}); err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "exports", "print", "flow.pdf")); err != nil {
		t.Fatalf("missing pdf: %v", err)
	}
	f, err := os.Open(filepath.Join(root, "exports", "print", "flow.png"))
	if err != nil {
		t.Fatalf("missing png: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 660 {
		t.Fatalf("print png should be rendered at scale 2, width %d", cfg.Width)
	}
}

func TestBatchExport_CustomFormatsAndOutDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	sc, _ := sampleScene()
	files, err := BatchExport("ignored.gdg.json", sc, BatchOptions{Formats: []string{"jpg"}, OutDir: out, Name: "chart"})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join(out, "chart.jpg") {
		t.Fatalf("written: %v", files)
	}
	if _, err := BatchExport("x.gdg.json", sc, BatchOptions{Formats: []string{"tiff"}, OutDir: out}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestParsePreset(t *testing.T) {
	if p, err := ParsePreset(" Print "); err != nil || p != PresetPrint {
		t.Fatalf("got %q, %v", p, err)
	}
	if _, err := ParsePreset("poster"); err == nil {
		t.Fatalf("expected error")
	}
}
