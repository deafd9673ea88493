package index_test

import (
	"context"
	"errors"
	"testing"

	"github.com/weaviate/weaviate/entities/models"

	"docqa/src/index"
	"docqa/src/storage/weaviate"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

// fakeStore keeps objects in memory per documentId and records the order
// of store operations.
type fakeStore struct {
	objects   map[int64][]weaviate.VectorObject
	ops       []string
	deleteErr error
	batchErr  error
	queryErr  error

	lastQuery weaviate.QueryConfig
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[int64][]weaviate.VectorObject)}
}

func (f *fakeStore) EnsureSchema(ctx context.Context, className string, properties []*models.Property) error {
	f.ops = append(f.ops, "ensure")
	return nil
}

func (f *fakeStore) BatchAddVectors(ctx context.Context, className string, objects []weaviate.VectorObject) error {
	f.ops = append(f.ops, "add")
	if f.batchErr != nil {
		return f.batchErr
	}
	for _, obj := range objects {
		id := obj.Properties["documentId"].(int64)
		f.objects[id] = append(f.objects[id], obj)
	}
	return nil
}

func (f *fakeStore) DeleteByDocument(ctx context.Context, className string, documentID int64) error {
	f.ops = append(f.ops, "delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, documentID)
	return nil
}

func (f *fakeStore) QueryVectors(ctx context.Context, className string, vector []float32, config weaviate.QueryConfig) ([]weaviate.QueryResult, error) {
	f.ops = append(f.ops, "query")
	f.lastQuery = config
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	// Honor the documentId restriction the way the real store does.
	var results []weaviate.QueryResult
	for _, obj := range f.objects[config.DocumentID] {
		if len(results) == config.Limit {
			break
		}
		results = append(results, weaviate.QueryResult{
			Certainty:  0.9,
			Properties: obj.Properties,
		})
	}
	return results, nil
}

func TestAddDeletesBeforeInserting(t *testing.T) {
	store := newFakeStore()
	idx := index.NewWeaviateIndex(store, &fakeEmbedder{})

	err := idx.Add(context.Background(), 1, []string{"chunk a", "chunk b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"ensure", "delete", "add"}
	if len(store.ops) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, store.ops)
	}
	for i, op := range want {
		if store.ops[i] != op {
			t.Fatalf("expected ops %v, got %v", want, store.ops)
		}
	}

	objs := store.objects[1]
	if len(objs) != 2 {
		t.Fatalf("expected 2 stored objects, got %d", len(objs))
	}
	for seq, obj := range objs {
		if obj.Properties["documentId"].(int64) != 1 {
			t.Errorf("object %d missing documentId property: %v", seq, obj.Properties)
		}
		if obj.Properties["seq"].(int) != seq {
			t.Errorf("object %d has seq %v", seq, obj.Properties["seq"])
		}
	}
}

func TestAddReingestReplaces(t *testing.T) {
	store := newFakeStore()
	idx := index.NewWeaviateIndex(store, &fakeEmbedder{})
	ctx := context.Background()

	if err := idx.Add(ctx, 1, []string{"old a", "old b", "old c"}); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if err := idx.Add(ctx, 1, []string{"new a", "new b"}); err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	objs := store.objects[1]
	if len(objs) != 2 {
		t.Fatalf("expected re-ingestion to replace records, got %d objects", len(objs))
	}
	if objs[0].Properties["content"] != "new a" || objs[1].Properties["content"] != "new b" {
		t.Errorf("expected only the new chunk set, got %v and %v",
			objs[0].Properties["content"], objs[1].Properties["content"])
	}
}

func TestQueryIsRestrictedToDocument(t *testing.T) {
	store := newFakeStore()
	idx := index.NewWeaviateIndex(store, &fakeEmbedder{})
	ctx := context.Background()

	if err := idx.Add(ctx, 1, []string{"about cats"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(ctx, 2, []string{"about dogs"}); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Query(ctx, 1, "cats?", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.lastQuery.DocumentID != 1 {
		t.Errorf("expected query restricted to document 1, got %d", store.lastQuery.DocumentID)
	}
	if store.lastQuery.Limit != 4 {
		t.Errorf("expected limit 4, got %d", store.lastQuery.Limit)
	}

	if len(results) != 1 || results[0].Text != "about cats" {
		t.Fatalf("expected only document 1 chunks, got %+v", results)
	}
	if results[0].Score != 0.9 {
		t.Errorf("expected certainty carried as score, got %v", results[0].Score)
	}
}

func TestAddEmptyChunkSetIsNoop(t *testing.T) {
	store := newFakeStore()
	idx := index.NewWeaviateIndex(store, &fakeEmbedder{})

	if err := idx.Add(context.Background(), 1, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.ops) != 0 {
		t.Errorf("expected no store calls for an empty chunk set, got %v", store.ops)
	}
}

func TestStoreFailuresWrapUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
	}{
		{"delete fails", &fakeStore{objects: map[int64][]weaviate.VectorObject{}, deleteErr: errors.New("down")}},
		{"batch fails", &fakeStore{objects: map[int64][]weaviate.VectorObject{}, batchErr: errors.New("down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := index.NewWeaviateIndex(tt.store, &fakeEmbedder{})
			err := idx.Add(context.Background(), 1, []string{"chunk"})
			if !errors.Is(err, index.ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestEmbedderFailureWrapsUnavailable(t *testing.T) {
	idx := index.NewWeaviateIndex(newFakeStore(), &fakeEmbedder{err: errors.New("ollama down")})

	if err := idx.Add(context.Background(), 1, []string{"chunk"}); !errors.Is(err, index.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Add, got %v", err)
	}
	if _, err := idx.Query(context.Background(), 1, "q", 4); !errors.Is(err, index.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Query, got %v", err)
	}
}
