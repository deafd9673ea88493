package job

import (
	"context"
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of an ingestion job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one queued ingestion run. DocumentID ties the run to the document
// it processes, so a failed job is traceable from the document itself.
type Job struct {
	ID         int             `json:"id"`
	TaskType   string          `json:"task_type"`
	DocumentID int64           `gorm:"index" json:"document_id"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	Error      *string         `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Job) TableName() string {
	return "ingest_jobs"
}

// JobRepository defines the interface for job persistence
type JobRepository interface {
	Create(ctx context.Context, taskType string, documentID int64, payload json.RawMessage) (*Job, error)
	Get(ctx context.Context, id int) (*Job, error)
	GetLatestByDocument(ctx context.Context, documentID int64) (*Job, error)
	UpdateStatus(ctx context.Context, id int, status JobStatus, err *string) error
}
