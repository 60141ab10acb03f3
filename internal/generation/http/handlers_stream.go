package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
)

// StreamRunEvents streams progress updates for a deal's current run using
// Server-Sent Events. This is the client-facing push channel; it consumes
// the run's pub/sub event channel, which Update publishes to on every stored
// change, so it reflects whichever of poll or callback landed first.
func (h *Handler) StreamRunEvents(c *gin.Context) {
	dealID := c.Param("id")

	run, err := h.genService.GetRunForDeal(c.Request.Context(), dealID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no generation run for deal"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
		return
	}

	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	ctx := c.Request.Context()

	// Subscribe before sending the initial state so an update that lands
	// in between is not lost.
	sub := h.genService.SubscribeRun(ctx, run.RunID)
	defer sub.Close()

	initialData, _ := json.Marshal(gin.H{"run": run})
	fmt.Fprintf(c.Writer, "event: initial\ndata: %s\n\n", string(initialData))
	flusher.Flush()

	// Keep-alive pings
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	lastUpdatedAt := run.UpdatedAt
	events := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case msg, ok := <-events:
			if !ok {
				return
			}

			var updated domain.GenerationRun
			if err := json.Unmarshal([]byte(msg.Payload), &updated); err != nil {
				continue
			}
			if !updated.UpdatedAt.After(lastUpdatedAt) {
				continue
			}
			lastUpdatedAt = updated.UpdatedAt

			eventData, _ := json.Marshal(gin.H{"run": updated})
			fmt.Fprintf(c.Writer, "event: update\ndata: %s\n\n", string(eventData))
			flusher.Flush()
		}
	}
}
