package files

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes presigned upload/download endpoints.
type Handler struct {
	presigner *Presigner
}

func NewHandler(p *Presigner) *Handler {
	return &Handler{presigner: p}
}

// Register attaches file routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/uploads", h.createUpload)
	rg.GET("/url", h.downloadURL)
}

type uploadReq struct {
	DealID      string `json:"deal_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func (h *Handler) createUpload(c *gin.Context) {
	var req uploadReq
	if err := c.ShouldBindJSON(&req); err != nil || req.DealID == "" || req.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "deal_id and filename required"})
		return
	}

	up, err := h.presigner.PresignUpload(c.Request.Context(), req.DealID, req.Filename, req.ContentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "upload": up})
}

func (h *Handler) downloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "key required"})
		return
	}

	url, err := h.presigner.PresignDownload(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "url": url})
}
