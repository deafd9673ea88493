package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docqa/src/core/pipeline"
	"docqa/src/infrastructure/job"
	"docqa/src/storage/minioctrl"
	"docqa/src/storage/postgres/documentctrl"
)

// OwnerHeader carries the caller identity. Authentication itself is
// handled upstream of this service.
const OwnerHeader = "X-Owner-ID"

type DocumentHandler struct {
	minioService    *minioctrl.MinioService
	bucketName      string
	documentService *documentctrl.DocumentService
	pipelineService *pipeline.Service
	jobService      *job.JobService
}

// NewDocumentHandler wires the upload path. When jobService is non-nil,
// ingestion runs asynchronously through the job queue; otherwise it runs
// inline in the request.
func NewDocumentHandler(
	minioService *minioctrl.MinioService,
	bucketName string,
	documentService *documentctrl.DocumentService,
	pipelineService *pipeline.Service,
	jobService *job.JobService,
) (*DocumentHandler, error) {
	err := minioService.EnsureBucketExists(context.Background(), bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	return &DocumentHandler{
		minioService:    minioService,
		bucketName:      bucketName,
		documentService: documentService,
		pipelineService: pipelineService,
		jobService:      jobService,
	}, nil
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, errors.New("no file uploaded"))
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		sendError(c, http.StatusInternalServerError, errors.New("failed to read file"))
		return
	}
	if len(fileBytes) == 0 {
		sendError(c, http.StatusBadRequest, errors.New("uploaded file is empty"))
		return
	}

	// Keep the original extension on the stored object; it drives
	// extraction dispatch later.
	objectName := uuid.New().String() + filepath.Ext(header.Filename)

	err = h.minioService.PutObject(c.Request.Context(), h.bucketName, objectName, fileBytes)
	if err != nil {
		sendError(c, http.StatusInternalServerError, errors.New("failed to store file"))
		return
	}

	minioURL := fmt.Sprintf("%s/%s", h.bucketName, objectName)
	doc, err := h.documentService.Create(c.Request.Context(), header.Filename, minioURL, c.GetHeader(OwnerHeader))
	if err != nil {
		sendError(c, http.StatusInternalServerError, errors.New("failed to record document"))
		return
	}

	if h.jobService != nil {
		queued, err := h.jobService.EnqueueIngest(c.Request.Context(), doc.ID)
		if err != nil {
			sendError(c, http.StatusInternalServerError, errors.New("failed to enqueue ingestion"))
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"document": doc,
			"job_id":   queued.ID,
			"status":   string(queued.Status),
		})
		return
	}

	text, err := h.ingestInline(c.Request.Context(), doc, fileBytes)
	if err != nil {
		sendError(c, http.StatusInternalServerError, errors.New("failed to ingest document"))
		return
	}

	status := "ingested"
	if text == "" {
		status = "no_text"
	}
	c.JSON(http.StatusCreated, gin.H{
		"document": doc,
		"status":   status,
	})
}

func (h *DocumentHandler) ingestInline(ctx context.Context, doc *documentctrl.Document, data []byte) (string, error) {
	spool, err := os.CreateTemp("", "docqa-upload-*"+filepath.Ext(doc.Filename))
	if err != nil {
		return "", err
	}
	defer os.Remove(spool.Name())

	if _, err := spool.Write(data); err != nil {
		spool.Close()
		return "", err
	}
	if err := spool.Close(); err != nil {
		return "", err
	}

	return h.pipelineService.Ingest(ctx, doc, spool.Name())
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit := 10
	offset := 0

	if limitParam := c.Query("limit"); limitParam != "" {
		if _, err := fmt.Sscanf(limitParam, "%d", &limit); err != nil {
			sendError(c, http.StatusBadRequest, errors.New("invalid limit parameter"))
			return
		}
	}

	if offsetParam := c.Query("offset"); offsetParam != "" {
		if _, err := fmt.Sscanf(offsetParam, "%d", &offset); err != nil {
			sendError(c, http.StatusBadRequest, errors.New("invalid offset parameter"))
			return
		}
	}

	documents, err := h.documentService.List(c.Request.Context(), c.GetHeader(OwnerHeader), limit, offset)
	if err != nil {
		sendError(c, http.StatusInternalServerError, errors.New("failed to list documents"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, ok := lookupDocument(c, h.documentService)
	if !ok {
		return
	}

	resp := gin.H{"document": doc}
	if h.jobService != nil {
		latest, err := h.jobService.LatestIngest(c.Request.Context(), doc.ID)
		if err == nil && latest != nil {
			resp["ingest"] = gin.H{
				"job_id": latest.ID,
				"status": latest.Status,
				"error":  latest.Error,
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// lookupDocument resolves the :id path parameter and enforces ownership.
// A document owned by somebody else reads as not found.
func lookupDocument(c *gin.Context, documents *documentctrl.DocumentService) (*documentctrl.Document, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, errors.New("invalid document id"))
		return nil, false
	}

	doc, err := documents.GetByID(c.Request.Context(), id)
	if err != nil {
		sendError(c, http.StatusInternalServerError, errors.New("failed to get document"))
		return nil, false
	}
	if doc == nil {
		sendError(c, http.StatusNotFound, errors.New("document not found"))
		return nil, false
	}

	if owner := c.GetHeader(OwnerHeader); doc.OwnerID != "" && doc.OwnerID != owner {
		sendError(c, http.StatusNotFound, errors.New("document not found"))
		return nil, false
	}

	return doc, true
}
