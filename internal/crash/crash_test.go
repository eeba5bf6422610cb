package crash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"godiagram/internal/storage"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "GoDiagram Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportCreatesFileInDocumentBackups(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "flow"+storage.DocumentExt)

	path, err := writeReport(&Target{Path: doc}, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != storage.BackupsDir(doc) {
		t.Fatalf("expected crash report under backups dir, got %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report file missing: %v", err)
	}
	if !strings.Contains(string(b), "Document: "+doc) {
		t.Fatalf("document path missing from report")
	}
}

func TestSnapshotSurvivesPanickingMarshal(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "flow"+storage.DocumentExt)
	_, err := snapshot(&Target{Path: doc, Marshal: func() ([]byte, error) { panic("again") }})
	if err == nil || !strings.Contains(err.Error(), "again") {
		t.Fatalf("expected marshal panic as error, got %v", err)
	}
	if path, err := snapshot(nil); path != "" || err != nil {
		t.Fatalf("nil target should be a no-op, got %q %v", path, err)
	}
}
