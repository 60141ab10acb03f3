package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// startStage kicks off (or re-generates) one artifact for a deal.
func (h *Handler) startStage(artifact domain.Artifact) gin.HandlerFunc {
	return func(c *gin.Context) {
		dealID := c.Param("id")
		userID := auth.UserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
			return
		}

		run, err := h.genService.StartStage(c.Request.Context(), dealID, userID, artifact)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrStageLocked):
				c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "stage prerequisites not met"})
			case errors.Is(err, domain.ErrUnknownArtifact):
				c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown artifact"})
			default:
				c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "failed to start generation"})
			}
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"ok": true, "run": run})
	}
}

// getStatus is the poll endpoint the dashboard hits between push events.
func (h *Handler) getStatus(c *gin.Context) {
	dealID := c.Param("id")

	run, err := h.genService.GetRunForDeal(c.Request.Context(), dealID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			// no run yet is not an error; the dashboard renders NOT_STARTED
			c.JSON(http.StatusOK, gin.H{"ok": true, "run": nil, "sow_gen_progress": stage.NotStarted})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to get run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "run": run, "sow_gen_progress": run.Progress})
}

func (h *Handler) submit(c *gin.Context) {
	dealID := c.Param("id")

	run, err := h.genService.SubmitForReview(c.Request.Context(), dealID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRunNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no generation run for deal"})
		case errors.Is(err, domain.ErrNotSubmittable):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "deal is not ready for submission"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to submit"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "run": run})
}
