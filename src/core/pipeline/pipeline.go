package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docqa/src/chunk"
	"docqa/src/extract"
	"docqa/src/index"
	"docqa/src/infrastructure/log"
	"docqa/src/storage/postgres/chatctrl"
	"docqa/src/storage/postgres/documentctrl"
)

// Extractor converts a raw file into UTF-8 text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// DocumentStore persists extracted text onto documents.
type DocumentStore interface {
	GetByID(ctx context.Context, id int64) (*documentctrl.Document, error)
	UpdateText(ctx context.Context, id int64, text string) error
}

// ChatStore appends chat turns.
type ChatStore interface {
	Create(ctx context.Context, documentID int64, question, answer string) (*chatctrl.ChatTurn, error)
}

// Service wires extraction, chunking, indexing, retrieval and generation
// into the two pipeline operations: Ingest and Answer.
type Service struct {
	extractor Extractor
	chunker   *chunk.Chunker
	idx       index.Index
	docs      DocumentStore
	chats     ChatStore
	retriever *Retriever
	generator *Generator

	ingestTimeout time.Duration
	answerTimeout time.Duration
}

type Config struct {
	ChunkSize            int
	ChunkOverlap         int
	TopK                 int
	ContextFallbackBytes int
	IngestTimeout        time.Duration
	AnswerTimeout        time.Duration
}

func NewService(
	extractor Extractor,
	idx index.Index,
	docs DocumentStore,
	chats ChatStore,
	llm LLMProvider,
	models []string,
	cfg Config,
) (*Service, error) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = chunk.DefaultSize
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = chunk.DefaultOverlap
	}

	// Invalid chunking parameters fail fast, before any file is touched.
	chunker, err := chunk.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	if len(models) == 0 {
		return nil, fmt.Errorf("at least one generation model is required")
	}

	return &Service{
		extractor:     extractor,
		chunker:       chunker,
		idx:           idx,
		docs:          docs,
		chats:         chats,
		retriever:     NewRetriever(idx, cfg.TopK, cfg.ContextFallbackBytes),
		generator:     NewGenerator(llm, models),
		ingestTimeout: cfg.IngestTimeout,
		answerTimeout: cfg.AnswerTimeout,
	}, nil
}

// Ingest extracts text from the file, persists it onto the document, and
// indexes the chunked text. Extraction failures and index outages are
// best-effort: the extracted text (possibly empty) is always persisted and
// returned. Only persistence failures are returned as errors.
func (s *Service) Ingest(ctx context.Context, doc *documentctrl.Document, filePath string) (string, error) {
	if s.ingestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ingestTimeout)
		defer cancel()
	}

	// Extraction never aborts ingestion: whatever text came back, possibly
	// none, is still persisted so the document stays usable.
	text, err := s.extractor.Extract(ctx, filePath)
	if err != nil {
		text = ""
		if errors.Is(err, extract.ErrNoText) {
			log.Info("no text extracted from document", "document_id", doc.ID, "path", filePath)
		} else {
			log.Error(err, "extraction failed, ingesting document without text", "document_id", doc.ID, "path", filePath)
		}
	}

	// The full text is persisted whether or not indexing succeeds, so
	// answering can fall back to it.
	if err := s.docs.UpdateText(ctx, doc.ID, text); err != nil {
		return "", fmt.Errorf("failed to persist extracted text: %w", err)
	}
	doc.Text = text

	if text == "" {
		return "", nil
	}

	chunks := s.chunker.Split(text)
	if err := s.idx.Add(ctx, doc.ID, chunks); err != nil {
		if errors.Is(err, index.ErrUnavailable) {
			// Non-fatal: the text is saved, retrieval degrades until the
			// index comes back.
			log.Error(err, "indexing skipped, vector index unavailable", "document_id", doc.ID)
			return text, nil
		}
		return text, fmt.Errorf("failed to index chunks: %w", err)
	}

	log.Info("document ingested", "document_id", doc.ID, "chars", len(text), "chunks", len(chunks))
	return text, nil
}

// Answer retrieves context for the question and generates a grounded
// answer. A chat turn is appended for every generated answer, including
// the failure marker. When no context exists at all, ErrNoContext is
// returned and nothing is persisted.
func (s *Service) Answer(ctx context.Context, doc *documentctrl.Document, question string) (string, error) {
	if s.answerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.answerTimeout)
		defer cancel()
	}

	contextText, err := s.retriever.Retrieve(ctx, doc, question)
	if err != nil {
		return "", err
	}

	answer, genErr := s.generator.Generate(ctx, question, contextText)
	if genErr != nil {
		log.Error(genErr, "answer generation failed", "document_id", doc.ID)
	}

	if _, err := s.chats.Create(ctx, doc.ID, question, answer); err != nil {
		return answer, fmt.Errorf("failed to persist chat turn: %w", err)
	}

	return answer, nil
}
