package pipeline

import (
	"context"
	"strings"
	"unicode/utf8"

	"docqa/src/index"
	"docqa/src/infrastructure/log"
	"docqa/src/storage/postgres/documentctrl"
)

const (
	DefaultTopK                 = 4
	DefaultContextFallbackBytes = 1500
)

// Retriever assembles the grounding context for a question: the top-K most
// similar indexed chunks, or a prefix of the stored document text when the
// index has nothing.
type Retriever struct {
	idx           index.Index
	topK          int
	fallbackBytes int
}

func NewRetriever(idx index.Index, topK, fallbackBytes int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if fallbackBytes <= 0 {
		fallbackBytes = DefaultContextFallbackBytes
	}
	return &Retriever{
		idx:           idx,
		topK:          topK,
		fallbackBytes: fallbackBytes,
	}
}

// Retrieve returns the context string for the question, or ErrNoContext
// when both the index and the stored text are empty or unavailable.
func (r *Retriever) Retrieve(ctx context.Context, doc *documentctrl.Document, question string) (string, error) {
	results, err := r.idx.Query(ctx, doc.ID, question, r.topK)
	if err != nil {
		// Degrade to the raw-text window instead of failing the request.
		log.Info("vector query failed, falling back to stored text", "document_id", doc.ID, "error", err.Error())
	}

	if err == nil && len(results) > 0 {
		texts := make([]string, 0, len(results))
		for _, res := range results {
			texts = append(texts, res.Text)
		}
		joined := strings.Join(texts, "\n")
		if strings.TrimSpace(joined) != "" {
			return joined, nil
		}
	}

	prefix := textPrefix(doc.Text, r.fallbackBytes)
	if strings.TrimSpace(prefix) == "" {
		return "", ErrNoContext
	}

	log.Debug("using stored text fallback for context", "document_id", doc.ID, "chars", len(prefix))
	return prefix, nil
}

// textPrefix caps text at max bytes without tearing a UTF-8 sequence.
func textPrefix(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
