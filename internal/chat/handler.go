package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/llm"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to a group that already requires identity.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.ask)
	rg.GET("/chat/:documentId", h.history)
	rg.POST("/chat/clear/:documentId", h.clear)
}

type askRequest struct {
	DocumentID string `json:"documentId"`
	Question   string `json:"question"`
}

func (h *Handler) ask(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	c.Set(middleware.DocumentIDKey, req.DocumentID)

	answer, err := h.Svc.AnswerQuestion(c.Request.Context(), req.DocumentID, req.Question, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"success":    true,
		"answer":     answer.Text,
		"tokensUsed": answer.TokensUsed,
	})
}

func (h *Handler) history(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("documentId")
	c.Set(middleware.DocumentIDKey, documentID)

	turns, err := h.Svc.History(c.Request.Context(), documentID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"success": true, "history": turns})
}

func (h *Handler) clear(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("documentId")
	c.Set(middleware.DocumentIDKey, documentID)

	if err := h.Svc.Clear(c.Request.Context(), documentID, userID); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"success": true, "message": "Conversation history cleared"})
}

func writeError(c *gin.Context, err error) {
	var provErr *llm.ProviderError
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Document ID and question are required", nil)
	case errors.Is(err, ErrDocumentNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
	case errors.Is(err, llm.ErrRateLimited):
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please wait a moment and try again.", nil)
	case errors.Is(err, llm.ErrProviderAuth):
		respond.Error(c, http.StatusBadGateway, "provider_auth_error", "Invalid API key. Please check your inference provider configuration.", nil)
	case errors.As(err, &provErr):
		respond.Error(c, http.StatusBadGateway, "provider_error", "Error calling inference API: "+provErr.Err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", err.Error(), nil)
	}
}
