package documentctrl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Document is an uploaded file plus the text extracted from it. Text stays
// empty until ingestion completes and is written exactly once per ingest.
type Document struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Filename  string    `gorm:"not null" json:"filename"`
	MinioURL  string    `gorm:"not null;column:minio_url" json:"minio_url"` // bucket name + object name
	OwnerID   string    `gorm:"index;column:owner_id" json:"owner_id"`
	Text      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DocumentService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewDocumentService(db *gorm.DB) (*DocumentService, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %v", err)
	}

	return &DocumentService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *DocumentService) Create(ctx context.Context, filename, minioURL, ownerID string) (*Document, error) {
	doc := &Document{
		ID:       s.snowflake.Generate().Int64(),
		Filename: filename,
		MinioURL: minioURL,
		OwnerID:  ownerID,
	}

	result := s.db.WithContext(ctx).Create(doc)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create document: %v", result.Error)
	}

	return doc, nil
}

func (s *DocumentService) GetByID(ctx context.Context, id int64) (*Document, error) {
	var doc Document
	result := s.db.WithContext(ctx).First(&doc, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %v", result.Error)
	}
	return &doc, nil
}

func (s *DocumentService) List(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	var docs []Document
	query := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	result := query.Find(&docs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list documents: %v", result.Error)
	}
	return docs, nil
}

// UpdateText persists the full extracted text onto the document.
func (s *DocumentService) UpdateText(ctx context.Context, id int64, text string) error {
	result := s.db.WithContext(ctx).Model(&Document{}).Where("id = ?", id).Update("text", text)
	if result.Error != nil {
		return fmt.Errorf("failed to update document text: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document not found: %d", id)
	}
	return nil
}
