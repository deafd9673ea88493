package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"docqa/src/fallback"
	"docqa/src/fsutil"
	"docqa/src/infrastructure/log"
)

// Kind is the declared file kind, inferred from the file extension.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// ErrNoText is returned when every extraction strategy for a file has been
// exhausted without producing text. Callers treat this as non-fatal.
var ErrNoText = errors.New("no text could be extracted")

// KindFromPath infers the file kind from the extension. Anything that is
// not a PDF or a known image format is treated as UTF-8 plain text. This
// dispatch is a compatibility contract.
func KindFromPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF
	case ".png", ".jpg", ".jpeg", ".tiff":
		return KindImage
	default:
		return KindText
	}
}

// Extractor converts raw files into UTF-8 text, trying multiple strategies
// in order and falling back on failure or an empty result.
type Extractor struct {
	fs     fsutil.FileStore
	runner CommandRunner
}

func NewExtractor(fs fsutil.FileStore, runner CommandRunner) *Extractor {
	return &Extractor{
		fs:     fs,
		runner: runner,
	}
}

// Extract returns the text content of the file at path. The returned text
// is always valid to use; an empty string with a non-nil error means every
// strategy was exhausted. Extract never panics past its boundary.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	kind := KindFromPath(path)

	var strategies []fallback.Strategy[string, string]
	switch kind {
	case KindPDF:
		strategies = []fallback.Strategy[string, string]{
			{Name: "pdf-library", Run: e.pdfLibraryText},
			{Name: "pdftotext", Run: e.pdfToTextTool},
			{Name: "pdf-ocr", Run: e.pdfOCR},
		}
	case KindImage:
		strategies = []fallback.Strategy[string, string]{
			{Name: "image-ocr", Run: e.imageOCR},
		}
	default:
		strategies = []fallback.Strategy[string, string]{
			{Name: "plain-text", Run: e.plainText},
		}
	}

	text, used, err := fallback.First(ctx, path, hasText, strategies)
	if err != nil {
		log.Info("extraction exhausted all strategies", "path", path, "kind", kind, "cause", err.Error())
		return "", fmt.Errorf("%w: %w", ErrNoText, err)
	}

	log.Debug("extracted text", "path", path, "kind", kind, "strategy", used, "chars", len(text))
	return text, nil
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
