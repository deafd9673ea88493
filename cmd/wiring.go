package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	weaviateClient "github.com/weaviate/weaviate-go-client/v4/weaviate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"docqa/src/core/pipeline"
	"docqa/src/extract"
	"docqa/src/fsutil"
	"docqa/src/index"
	"docqa/src/infrastructure/integrations/ollama"
	"docqa/src/storage/minioctrl"
	"docqa/src/storage/postgres/chatctrl"
	"docqa/src/storage/postgres/documentctrl"
	"docqa/src/storage/weaviate"
)

// services bundles everything the serve, worker and CLI commands share.
type services struct {
	db       *gorm.DB
	docs     *documentctrl.DocumentService
	chats    *chatctrl.ChatService
	minio    *minioctrl.MinioService
	pipeline *pipeline.Service
}

func openDatabase() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.db"),
		viper.GetString("postgres.port"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	return db, nil
}

func buildServices() (*services, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, err
	}

	documentService, err := documentctrl.NewDocumentService(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document service: %v", err)
	}

	chatService, err := chatctrl.NewChatService(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat service: %v", err)
	}

	minioService, err := minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio service: %v", err)
	}

	// Generation can run for minutes, so the HTTP client carries no
	// timeout of its own; per-call deadlines come from the context.
	ollamaClient := ollama.NewClient(viper.GetString("ollama.url"), &http.Client{})

	wc := weaviateClient.New(weaviateClient.Config{
		Host:   viper.GetString("weaviate.host"),
		Scheme: viper.GetString("weaviate.scheme"),
	})
	wsdk := weaviate.NewSDK(wc)

	embedder := ollama.NewEmbeddingProvider(ollamaClient, viper.GetString("ollama.embedding_model"))
	idx := index.NewWeaviateIndex(wsdk, embedder)

	extractor := extract.NewExtractor(fsutil.NewLocalFileStore(), extract.NewExecRunner())

	pipelineService, err := pipeline.NewService(
		extractor,
		idx,
		documentService,
		chatService,
		ollama.NewGenerationProvider(ollamaClient),
		viper.GetStringSlice("ollama.models"),
		pipeline.Config{
			ChunkSize:            viper.GetInt("rag.chunk_size"),
			ChunkOverlap:         viper.GetInt("rag.chunk_overlap"),
			TopK:                 viper.GetInt("rag.top_k"),
			ContextFallbackBytes: viper.GetInt("rag.context_fallback_bytes"),
			IngestTimeout:        parseDurationOr("rag.ingest_timeout", 2*time.Minute),
			AnswerTimeout:        parseDurationOr("rag.answer_timeout", time.Minute),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline service: %v", err)
	}

	return &services{
		db:       db,
		docs:     documentService,
		chats:    chatService,
		minio:    minioService,
		pipeline: pipelineService,
	}, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}

func (s *services) Close() {
	sqlDB, err := s.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}
