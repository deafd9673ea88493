package extract

import (
	"context"
)

// imageOCR runs tesseract over a single image file and returns the
// recognized text.
func (e *Extractor) imageOCR(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, "tesseract", path, "stdout")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
