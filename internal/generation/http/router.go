package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
)

// Register registers the generation routes under the deals group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/:id/generation/sow", h.startStage(domain.ArtifactSOW))
	rg.POST("/:id/generation/architecture", h.startStage(domain.ArtifactArchitecture))
	rg.POST("/:id/generation/tco", h.startStage(domain.ArtifactTCO))
	rg.GET("/:id/generation", h.getStatus)
	rg.GET("/:id/generation/events", h.StreamRunEvents)
	rg.POST("/:id/generation/submit", h.submit)
}

// RegisterCallbacks registers the orchestrator callback route. It lives
// outside the user-auth group; the shared secret authenticates it.
func (h *Handler) RegisterCallbacks(rg *gin.RouterGroup) {
	rg.POST("/generation/:run_id", h.PipelineCallback)
}

// RegisterMetrics registers the pipeline metrics route.
func (h *Handler) RegisterMetrics(rg *gin.RouterGroup) {
	rg.GET("/metrics", h.getMetrics)
}
