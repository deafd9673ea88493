package extract_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"docqa/src/extract"
	"docqa/src/fsutil"
)

// mockRunner fakes external tools per command name and records every
// invocation.
type mockRunner struct {
	handlers map[string]func(args ...string) ([]byte, error)
	calls    []string
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, name)
	h, ok := m.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%s not found in PATH", name)
	}
	return h(args...)
}

func newExtractor(runner *mockRunner) *extract.Extractor {
	return extract.NewExtractor(fsutil.NewLocalFileStore(), runner)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		path string
		want extract.Kind
	}{
		{"report.pdf", extract.KindPDF},
		{"REPORT.PDF", extract.KindPDF},
		{"scan.png", extract.KindImage},
		{"photo.jpg", extract.KindImage},
		{"photo.JPEG", extract.KindImage},
		{"fax.tiff", extract.KindImage},
		{"notes.txt", extract.KindText},
		{"README.md", extract.KindText},
		{"no-extension", extract.KindText},
	}

	for _, tt := range tests {
		if got := extract.KindFromPath(tt.path); got != tt.want {
			t.Errorf("KindFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", []byte("hello world\nsecond line"))
	e := newExtractor(&mockRunner{})

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world\nsecond line" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestExtractPlainTextRejectsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "binary.txt", []byte{0xff, 0xfe, 0x00, 0x80})
	e := newExtractor(&mockRunner{})

	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, extract.ErrNoText) {
		t.Fatalf("expected ErrNoText for invalid UTF-8, got %v", err)
	}
}

func TestExtractWhitespaceOnlyIsNoText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blank.txt", []byte("   \n\t  \n"))
	e := newExtractor(&mockRunner{})

	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, extract.ErrNoText) {
		t.Fatalf("expected ErrNoText for whitespace-only file, got %v", err)
	}
}

func TestExtractImageRunsOCR(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.png", []byte("fake png bytes"))
	runner := &mockRunner{
		handlers: map[string]func(args ...string) ([]byte, error){
			"tesseract": func(args ...string) ([]byte, error) {
				return []byte("recognized text"), nil
			},
		},
	}
	e := newExtractor(runner)

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "recognized text" {
		t.Errorf("unexpected text: %q", got)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "tesseract" {
		t.Errorf("expected a single tesseract call, got %v", runner.calls)
	}
}

func TestExtractScannedPDFFallsBackToOCR(t *testing.T) {
	dir := t.TempDir()
	// Not a parseable PDF, so the in-process parser fails and the chain
	// moves on to the external tools.
	path := writeFile(t, dir, "scan.pdf", []byte("%PDF-1.4 garbage"))

	runner := &mockRunner{
		handlers: map[string]func(args ...string) ([]byte, error){
			// Scanned PDF: no text layer.
			"pdftotext": func(args ...string) ([]byte, error) {
				return []byte("  \n"), nil
			},
			"pdftoppm": func(args ...string) ([]byte, error) {
				prefix := args[len(args)-1]
				if err := os.WriteFile(prefix+"-1.png", []byte("png"), 0o644); err != nil {
					return nil, err
				}
				return nil, nil
			},
			"tesseract": func(args ...string) ([]byte, error) {
				return []byte("text recovered by ocr"), nil
			},
		},
	}
	e := newExtractor(runner)

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "text recovered by ocr" {
		t.Errorf("unexpected text: %q", got)
	}

	want := []string{"pdftotext", "pdftoppm", "tesseract"}
	if strings.Join(runner.calls, ",") != strings.Join(want, ",") {
		t.Errorf("expected tool order %v, got %v", want, runner.calls)
	}
}

func TestExtractPDFAllStrategiesExhausted(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.pdf", []byte("not a pdf at all"))

	// No tools available.
	e := newExtractor(&mockRunner{})

	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, extract.ErrNoText) {
		t.Fatalf("expected ErrNoText when every strategy fails, got %v", err)
	}
}

func TestExecRunnerMissingTool(t *testing.T) {
	runner := extract.NewExecRunner()
	_, err := runner.Run(context.Background(), "definitely-not-a-real-tool-docqa")
	if err == nil {
		t.Fatal("expected error for a missing tool")
	}
}

func TestExtractPDFWithPdftotext(t *testing.T) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		t.Skip("pdftotext not installed")
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "empty.pdf", []byte("%PDF-1.4 garbage"))
	e := extract.NewExtractor(fsutil.NewLocalFileStore(), extract.NewExecRunner())

	// A garbage file should exhaust the chain, not crash it.
	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, extract.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}
