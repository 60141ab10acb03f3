package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/templates/domain"
)

type createReq struct {
	Name    string `json:"name"`
	Variant string `json:"variant"`
	BodyKey string `json:"body_key"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	t, err := h.repo.Create(c.Request.Context(), strings.TrimSpace(req.Name), req.Variant, req.BodyKey)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidVariant) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "variant must be essential or growth"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "template": t})
}

func (h *Handler) list(c *gin.Context) {
	variant := c.Query("variant")
	if variant != "" && !domain.ValidVariant(variant) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "variant must be essential or growth"})
		return
	}

	items, err := h.repo.List(c.Request.Context(), variant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "templates": items})
}

func (h *Handler) get(c *gin.Context) {
	t, err := h.repo.Get(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "template not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "template": t})
}

type renameReq struct {
	Name string `json:"name"`
}

func (h *Handler) rename(c *gin.Context) {
	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	t, err := h.repo.Rename(c.Request.Context(), c.Param("public_id"), strings.TrimSpace(req.Name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "template": t})
}

type bodyKeyReq struct {
	BodyKey string `json:"body_key"`
}

func (h *Handler) setBodyKey(c *gin.Context) {
	var req bodyKeyReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.BodyKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	t, err := h.repo.SetBodyKey(c.Request.Context(), c.Param("public_id"), strings.TrimSpace(req.BodyKey))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "template": t})
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.repo.SoftDelete(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
