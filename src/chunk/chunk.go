package chunk

import "fmt"

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// ConfigurationError reports chunking parameters that cannot make progress.
type ConfigurationError struct {
	Size    int
	Overlap int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid chunking parameters: size=%d overlap=%d (need 0 <= overlap < size)", e.Size, e.Overlap)
}

// Chunker splits text into overlapping fixed-size windows.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, &ConfigurationError{Size: size, Overlap: overlap}
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the ordered sequence of windows over text. Window i starts
// at character i*(size-overlap) and spans min(size, remaining) characters.
// Positions count runes, not bytes, so multibyte text chunks the same as
// ASCII and no window tears a UTF-8 sequence. Identical input always yields
// an identical sequence, which re-ingestion relies on.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Split chunks text with the given parameters in a single call.
func Split(text string, size, overlap int) ([]string, error) {
	c, err := NewChunker(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}
