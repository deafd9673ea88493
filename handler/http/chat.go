package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/src/core/pipeline"
	"docqa/src/storage/postgres/chatctrl"
	"docqa/src/storage/postgres/documentctrl"
)

type ChatHandler struct {
	documentService *documentctrl.DocumentService
	chatService     *chatctrl.ChatService
	pipelineService *pipeline.Service
}

func NewChatHandler(
	documentService *documentctrl.DocumentService,
	chatService *chatctrl.ChatService,
	pipelineService *pipeline.Service,
) *ChatHandler {
	return &ChatHandler{
		documentService: documentService,
		chatService:     chatService,
		pipelineService: pipelineService,
	}
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	doc, ok := lookupDocument(c, h.documentService)
	if !ok {
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, errors.New("question is required"))
		return
	}

	answer, err := h.pipelineService.Answer(c.Request.Context(), doc, req.Question)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoContext) {
			sendError(c, http.StatusBadRequest, err)
			return
		}
		sendError(c, http.StatusInternalServerError, errors.New("failed to answer question"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document_id": doc.ID,
		"question":    req.Question,
		"answer":      answer,
	})
}

func (h *ChatHandler) History(c *gin.Context) {
	doc, ok := lookupDocument(c, h.documentService)
	if !ok {
		return
	}

	limit := 50
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

	turns, err := h.chatService.ListByDocument(c.Request.Context(), doc.ID, limit, offset)
	if err != nil {
		sendError(c, http.StatusInternalServerError, errors.New("failed to list chat history"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document_id": doc.ID,
		"history":     turns,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}
