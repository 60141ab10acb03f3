package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/generation/service"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// getMetrics reports counters for the generation pipeline: orchestrator call
// volume and latency, and how many progress reports the monotonic guard and
// latch discarded. Admin only.
func (h *Handler) getMetrics(c *gin.Context) {
	if auth.UserRole(c) != stage.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin role required"})
		return
	}

	m := service.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"metrics": gin.H{
			"orchestrator_calls":          m.OrchestratorCalls(),
			"orchestrator_errors":         m.OrchestratorErrors(),
			"orchestrator_avg_latency_ms": m.AverageOrchestratorLatency(),
			"progress_updates":            m.ProgressUpdateCount(),
			"stale_updates":               m.StaleUpdateCount(),
		},
	})
}
