package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	dealsdomain "github.com/sowdesk/sowdesk-backend/internal/deals/domain"
)

// DealChecker verifies the deal exists before a question is forwarded.
type DealChecker interface {
	Get(ctx context.Context, dealID string) (*dealsdomain.Deal, error)
}

// Handler proxies deal-scoped questions to the RAG backend.
type Handler struct {
	client *RAGClient
	deals  DealChecker
}

func NewHandler(client *RAGClient, deals DealChecker) *Handler {
	return &Handler{client: client, deals: deals}
}

// Register attaches the chat route to the deals router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/:id/chat", h.ask)
}

type askReq struct {
	Question string    `json:"question"`
	History  []Message `json:"history,omitempty"`
}

func (h *Handler) ask(c *gin.Context) {
	dealID := c.Param("id")

	var req askReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "question required"})
		return
	}

	if _, err := h.deals.Get(c.Request.Context(), dealID); err != nil {
		if errors.Is(err, dealsdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "deal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	resp, err := h.client.Ask(c.Request.Context(), AskRequest{
		DealID:   dealID,
		Question: strings.TrimSpace(req.Question),
		History:  req.History,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "answer": resp.Answer, "sources": resp.Sources})
}
