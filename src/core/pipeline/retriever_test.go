package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"docqa/src/core/pipeline"
	"docqa/src/index"
	"docqa/src/storage/postgres/documentctrl"
)

// fakeIndex serves canned query results and records Add calls per document.
type fakeIndex struct {
	results  []index.Result
	queryErr error
	addErr   error
	added    map[int64][]string
	queries  int
}

func (f *fakeIndex) Add(ctx context.Context, documentID int64, chunks []string) error {
	if f.addErr != nil {
		return f.addErr
	}
	if f.added == nil {
		f.added = make(map[int64][]string)
	}
	f.added[documentID] = chunks
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, documentID int64, question string, k int) ([]index.Result, error) {
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if len(f.results) > k {
		return f.results[:k], nil
	}
	return f.results, nil
}

func TestRetrieveJoinsChunksInOrder(t *testing.T) {
	idx := &fakeIndex{
		results: []index.Result{
			{Text: "first chunk", Score: 0.95},
			{Text: "second chunk", Score: 0.87},
			{Text: "third chunk", Score: 0.51},
		},
	}
	r := pipeline.NewRetriever(idx, 4, 0)
	doc := &documentctrl.Document{ID: 1, Text: "stored text"}

	got, err := r.Retrieve(context.Background(), doc, "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "first chunk\nsecond chunk\nthird chunk"
	if got != want {
		t.Errorf("expected chunks joined in similarity order, got %q", got)
	}
}

func TestRetrieveRespectsTopK(t *testing.T) {
	idx := &fakeIndex{
		results: []index.Result{
			{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}, {Text: "e"},
		},
	}
	r := pipeline.NewRetriever(idx, 2, 0)
	doc := &documentctrl.Document{ID: 1}

	got, err := r.Retrieve(context.Background(), doc, "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a\nb" {
		t.Errorf("expected top 2 chunks only, got %q", got)
	}
}

func TestRetrieveFallsBackToStoredTextOnQueryError(t *testing.T) {
	idx := &fakeIndex{queryErr: errors.New("connection refused")}
	r := pipeline.NewRetriever(idx, 4, 1500)
	doc := &documentctrl.Document{ID: 1, Text: strings.Repeat("x", 4000)}

	got, err := r.Retrieve(context.Background(), doc, "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1500 {
		t.Errorf("expected 1500-byte prefix, got %d bytes", len(got))
	}
}

func TestRetrieveFallsBackWhenIndexEmpty(t *testing.T) {
	idx := &fakeIndex{}
	r := pipeline.NewRetriever(idx, 4, 1500)
	doc := &documentctrl.Document{ID: 1, Text: "short stored text"}

	got, err := r.Retrieve(context.Background(), doc, "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "short stored text" {
		t.Errorf("expected full stored text under the cap, got %q", got)
	}
}

func TestRetrieveFallbackKeepsUTF8Intact(t *testing.T) {
	idx := &fakeIndex{}
	r := pipeline.NewRetriever(idx, 4, 10)
	// Each rune is 3 bytes; a 10-byte cut would tear the fourth rune.
	doc := &documentctrl.Document{ID: 1, Text: strings.Repeat("語", 20)}

	got, err := r.Retrieve(context.Background(), doc, "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !utf8.ValidString(got) {
		t.Errorf("fallback prefix is not valid UTF-8: %q", got)
	}
	if len(got) != 9 {
		t.Errorf("expected cut at rune boundary (9 bytes), got %d", len(got))
	}
}

func TestRetrieveNoContext(t *testing.T) {
	idx := &fakeIndex{}
	r := pipeline.NewRetriever(idx, 4, 1500)
	doc := &documentctrl.Document{ID: 1, Text: "   \n  "}

	_, err := r.Retrieve(context.Background(), doc, "question")
	if !errors.Is(err, pipeline.ErrNoContext) {
		t.Fatalf("expected ErrNoContext, got %v", err)
	}
}
