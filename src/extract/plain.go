package extract

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// plainText reads the file as UTF-8 text. Files that do not decode as
// UTF-8 yield no text rather than garbage.
func (e *Extractor) plainText(_ context.Context, path string) (string, error) {
	data, err := e.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("file %s is not valid UTF-8", path)
	}

	return string(data), nil
}
