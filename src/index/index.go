package index

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/weaviate/weaviate/entities/models"

	"docqa/src/infrastructure/log"
	"docqa/src/storage/weaviate"
)

// ClassName is the single Weaviate class holding chunk vectors for every
// document, partitioned by the documentId property.
const ClassName = "DocumentChunk"

// ErrUnavailable is returned when the embedding backend or the vector
// store cannot be reached. Ingestion treats this as non-fatal; retrieval
// degrades to the raw-text fallback.
var ErrUnavailable = errors.New("vector index unavailable")

// Embedder turns text into a fixed-length vector. Swappable backend.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result is one retrieved chunk with its similarity score.
type Result struct {
	Text  string
	Score float64
}

// Index stores chunk embeddings per document and answers nearest-neighbor
// queries restricted to a single document.
type Index interface {
	// Add replaces the indexed chunks of a document with the given set.
	Add(ctx context.Context, documentID int64, chunks []string) error
	// Query returns up to k chunks of the document nearest to the question,
	// ordered by descending similarity.
	Query(ctx context.Context, documentID int64, question string, k int) ([]Result, error)
}

// VectorStore is the subset of the Weaviate SDK the index relies on.
type VectorStore interface {
	EnsureSchema(ctx context.Context, className string, properties []*models.Property) error
	BatchAddVectors(ctx context.Context, className string, objects []weaviate.VectorObject) error
	DeleteByDocument(ctx context.Context, className string, documentID int64) error
	QueryVectors(ctx context.Context, className string, vector []float32, config weaviate.QueryConfig) ([]weaviate.QueryResult, error)
}

// WeaviateIndex is an Index backed by a Weaviate class.
type WeaviateIndex struct {
	store    VectorStore
	embedder Embedder

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewWeaviateIndex(store VectorStore, embedder Embedder) *WeaviateIndex {
	return &WeaviateIndex{
		store:    store,
		embedder: embedder,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// documentLock serializes writers per document so two concurrent
// ingestions of the same document cannot interleave partial chunk sets.
func (w *WeaviateIndex) documentLock(documentID int64) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.locks[documentID]
	if !ok {
		l = &sync.Mutex{}
		w.locks[documentID] = l
	}
	return l
}

func (w *WeaviateIndex) Add(ctx context.Context, documentID int64, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}

	// Embed before taking the write lock; only the store mutation needs
	// to be serialized.
	objects := make([]weaviate.VectorObject, 0, len(chunks))
	for seq, text := range chunks {
		vector, err := w.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("%w: failed to embed chunk %d: %v", ErrUnavailable, seq, err)
		}
		objects = append(objects, weaviate.VectorObject{
			Vector: vector,
			Properties: map[string]interface{}{
				"content":    text,
				"documentId": documentID,
				"seq":        seq,
			},
		})
	}

	l := w.documentLock(documentID)
	l.Lock()
	defer l.Unlock()

	if err := w.ensureSchema(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Replace, not append: drop prior records so repeated ingestion of the
	// same document cannot grow duplicates.
	if err := w.store.DeleteByDocument(ctx, ClassName, documentID); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := w.store.BatchAddVectors(ctx, ClassName, objects); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	log.Debug("indexed document chunks", "document_id", documentID, "chunks", len(objects))
	return nil
}

func (w *WeaviateIndex) Query(ctx context.Context, documentID int64, question string, k int) ([]Result, error) {
	vector, err := w.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed question: %v", ErrUnavailable, err)
	}

	config := weaviate.QueryConfig{
		Fields:     []string{"content", "seq"},
		Limit:      k,
		DocumentID: documentID,
	}

	raw, err := w.store.QueryVectors(ctx, ClassName, vector, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		content, ok := r.Properties["content"].(string)
		if !ok {
			continue
		}
		results = append(results, Result{
			Text:  content,
			Score: r.Certainty,
		})
	}

	return results, nil
}

func (w *WeaviateIndex) ensureSchema(ctx context.Context) error {
	properties := []*models.Property{
		{
			Name:     "content",
			DataType: []string{"text"},
		},
		{
			Name:     "documentId",
			DataType: []string{"int"},
		},
		{
			Name:     "seq",
			DataType: []string{"int"},
		},
	}

	return w.store.EnsureSchema(ctx, ClassName, properties)
}
