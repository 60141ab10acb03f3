package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/notifications/domain"
	"github.com/sowdesk/sowdesk-backend/internal/notifications/service"
)

// Handler serves the notification endpoints.
type Handler struct {
	svc *service.NotificationService
}

func New(svc *service.NotificationService) *Handler {
	return &Handler{svc: svc}
}

// Register registers the notification routes.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/unread-count", h.unreadCount)
	rg.POST("/:id/read", h.markRead)
	rg.POST("/read-all", h.markAllRead)
}

func (h *Handler) list(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	items, err := h.svc.List(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "notifications": items})
}

func (h *Handler) unreadCount(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return
	}

	n, err := h.svc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to count notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "unread": n})
}

func (h *Handler) markRead(c *gin.Context) {
	userID := auth.UserID(c)
	id := c.Param("id")

	n, err := h.svc.MarkRead(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to mark read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "notification": n})
}

func (h *Handler) markAllRead(c *gin.Context) {
	userID := auth.UserID(c)

	n, err := h.svc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to mark all read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated": n})
}
