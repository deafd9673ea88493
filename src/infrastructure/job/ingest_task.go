package job

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"docqa/src/core/pipeline"
	"docqa/src/storage/minioctrl"
	"docqa/src/storage/postgres/documentctrl"
)

const TaskTypeIngest = "ingest"

// IngestPayload identifies the document to (re-)ingest. The raw file is
// fetched from object storage, so the task can run on any worker.
type IngestPayload struct {
	DocumentID int64 `json:"document_id"`
}

type IngestTask struct {
	documentService *documentctrl.DocumentService
	minioService    *minioctrl.MinioService
	pipelineService *pipeline.Service
}

func NewIngestTask(
	documentService *documentctrl.DocumentService,
	minioService *minioctrl.MinioService,
	pipelineService *pipeline.Service,
) *IngestTask {
	return &IngestTask{
		documentService: documentService,
		minioService:    minioService,
		pipelineService: pipelineService,
	}
}

func (task *IngestTask) HandleIngestTask(ctx context.Context, payload json.RawMessage) error {
	var ingestPayload IngestPayload
	if err := json.Unmarshal(payload, &ingestPayload); err != nil {
		return fmt.Errorf("failed to unmarshal ingest payload: %w", err)
	}

	doc, err := task.documentService.GetByID(ctx, ingestPayload.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("document not found: %d", ingestPayload.DocumentID)
	}

	bucket, objectName := task.minioService.GetBucketAndObjectFromURL(doc.MinioURL)
	if bucket == "" {
		return fmt.Errorf("invalid minio URL format: %s", doc.MinioURL)
	}
	data, err := task.minioService.GetObject(ctx, bucket, objectName)
	if err != nil {
		return fmt.Errorf("failed to get document file: %w", err)
	}

	// Spool to a local file keeping the original extension, which drives
	// extraction dispatch.
	spool, err := os.CreateTemp("", "docqa-ingest-*"+filepath.Ext(doc.Filename))
	if err != nil {
		return fmt.Errorf("failed to create spool file: %w", err)
	}
	defer os.Remove(spool.Name())

	if _, err := spool.Write(data); err != nil {
		spool.Close()
		return fmt.Errorf("failed to write spool file: %w", err)
	}
	if err := spool.Close(); err != nil {
		return fmt.Errorf("failed to close spool file: %w", err)
	}

	if _, err := task.pipelineService.Ingest(ctx, doc, spool.Name()); err != nil {
		return fmt.Errorf("failed to ingest document %d: %w", doc.ID, err)
	}

	return nil
}
