package http

import "github.com/gin-gonic/gin"

// Register attaches template routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:public_id", h.get)
	rg.PATCH("/:public_id", h.rename)
	rg.PUT("/:public_id/body", h.setBodyKey)
	rg.DELETE("/:public_id", h.delete)
}
