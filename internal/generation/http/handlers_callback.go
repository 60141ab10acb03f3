package http

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// PipelineCallback is the push half of the dual-channel completion signal.
// The orchestrator calls it whenever an execution changes stage; the run id
// is in the URL path (the callback URL is minted per run), authenticated by
// X-Generation-Callback-Secret. Replays and poll races are absorbed by the
// completion latch, so the handler is idempotent.
func (h *Handler) PipelineCallback(c *gin.Context) {
	runID := c.Param("run_id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run ID is required"})
		return
	}

	// Authn: shared secret (orchestrator-to-backend)
	// If secret is configured, require it; otherwise allow (for local development)
	if h.callbackSecret != "" {
		secret := c.GetHeader("X-Generation-Callback-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(h.callbackSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: invalid callback secret"})
			return
		}
	}

	var body PipelineCallbackBody
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("Callback JSON binding error for run_id=%s: %v", runID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	run, changed, err := h.genService.ReportProgress(c.Request.Context(), runID, body.ExecutionID, stage.Progress(body.Progress))
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			log.Printf("Callback: run not found for run_id=%s", runID)
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		log.Printf("Callback: failed to update run_id=%s: %v", runID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "callback processed",
		"run_id":  run.RunID,
		"applied": changed,
	})
}
