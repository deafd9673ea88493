package chatctrl

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ChatTurn is one question/answer pair about a document. Turns are
// append-only and never mutated.
type ChatTurn struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	DocumentID int64     `gorm:"not null;index" json:"document_id"`
	Question   string    `gorm:"not null" json:"question"`
	Answer     string    `gorm:"not null" json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChatService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewChatService(db *gorm.DB) (*ChatService, error) {
	node, err := snowflake.NewNode(2) // Node number 2 for chat turns
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %v", err)
	}

	return &ChatService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *ChatService) Create(ctx context.Context, documentID int64, question, answer string) (*ChatTurn, error) {
	turn := &ChatTurn{
		ID:         s.snowflake.Generate().Int64(),
		DocumentID: documentID,
		Question:   question,
		Answer:     answer,
	}

	result := s.db.WithContext(ctx).Create(turn)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create chat turn: %v", result.Error)
	}

	return turn, nil
}

// ListByDocument returns the chat turns for a document, newest first.
func (s *ChatService) ListByDocument(ctx context.Context, documentID int64, limit, offset int) ([]ChatTurn, error) {
	var turns []ChatTurn
	result := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&turns)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list chat turns: %v", result.Error)
	}
	return turns, nil
}
