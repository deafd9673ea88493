package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/src/core/pipeline"
)

// Handler serves the document question-answering API.
type Handler struct {
	documents *DocumentHandler
	chat      *ChatHandler
}

func NewHandler(documents *DocumentHandler, chat *ChatHandler) *Handler {
	return &Handler{
		documents: documents,
		chat:      chat,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	// Document routes
	api.POST("/documents", h.documents.Upload)
	api.GET("/documents", h.documents.List)
	api.GET("/documents/:id", h.documents.Get)

	// Question answering routes
	api.POST("/documents/:id/ask", h.chat.Ask)
	api.GET("/documents/:id/history", h.chat.History)

	// System routes
	api.GET("/health", h.CheckHealth)
}

func (h *Handler) CheckHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ErrorResponse is the common error response structure
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sendError(c *gin.Context, status int, err error) {
	code := "INTERNAL_ERROR"
	switch {
	case errors.Is(err, pipeline.ErrNoContext):
		code = "NO_READABLE_TEXT"
		status = http.StatusBadRequest
	case status == http.StatusBadRequest:
		code = "BAD_REQUEST"
	case status == http.StatusNotFound:
		code = "NOT_FOUND"
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}
