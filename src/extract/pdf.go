package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/src/infrastructure/log"
)

// pdfLibraryText extracts the embedded text layer page by page using the
// in-process PDF parser. Scanned PDFs with no text layer come back empty,
// which pushes the chain onward.
func (e *Extractor) pdfLibraryText(ctx context.Context, path string) (text string, err error) {
	// The parser panics on some malformed files; extraction must not.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parser panicked: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			log.Debug("failed to read pdf page", "path", path, "page", i, "error", err.Error())
			continue
		}
		if content != "" {
			pages = append(pages, content)
		}
	}

	return strings.Join(pages, "\n"), nil
}

// pdfToTextTool shells out to poppler's pdftotext as the secondary parser.
func (e *Extractor) pdfToTextTool(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// pdfOCR renders each page to an image with pdftoppm and runs OCR over the
// rendered pages. This is the last resort for scanned, image-only PDFs.
func (e *Extractor) pdfOCR(ctx context.Context, path string) (string, error) {
	dir, err := os.MkdirTemp("", "docqa-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	if _, err := e.runner.Run(ctx, "pdftoppm", "-png", "-r", "150", path, prefix); err != nil {
		return "", err
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", fmt.Errorf("failed to list rendered pages: %w", err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("pdftoppm rendered no pages for %s", path)
	}
	sort.Strings(pages)

	var texts []string
	for _, page := range pages {
		content, err := e.imageOCR(ctx, page)
		if err != nil {
			return "", err
		}
		if content != "" {
			texts = append(texts, content)
		}
	}

	return strings.Join(texts, "\n"), nil
}
