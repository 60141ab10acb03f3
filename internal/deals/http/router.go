package http

import "github.com/gin-gonic/gin"

// Register registers the deal routes on the given group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PUT("/:id/assignee", h.assign)
	rg.PUT("/:id/status", h.setStatus)
	rg.POST("/:id/sync", h.sync)
}
