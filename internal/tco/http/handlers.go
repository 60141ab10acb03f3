package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
	"github.com/sowdesk/sowdesk-backend/internal/tco/storage"
)

// Refresher re-pulls cloud prices into the store.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Handler exposes the compute price cache backing TCO estimates.
type Handler struct {
	store     *storage.PriceStore
	refresher Refresher
}

func NewHandler(store *storage.PriceStore, refresher Refresher) *Handler {
	return &Handler{store: store, refresher: refresher}
}

// Register attaches TCO routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/prices", h.listPrices)
	rg.GET("/prices/freshness", h.freshness)
	rg.POST("/prices/refresh", h.refresh)
}

func (h *Handler) listPrices(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	rows, err := h.store.Query(c.Request.Context(), storage.QueryFilter{
		Region:       c.Query("region"),
		InstanceType: c.Query("instance_type"),
		Limit:        limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "prices": rows})
}

func (h *Handler) freshness(c *gin.Context) {
	ts, err := h.store.LastFetchedAt(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if ts.IsZero() {
		c.JSON(http.StatusOK, gin.H{"ok": true, "fetched_at": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "fetched_at": ts})
}

func (h *Handler) refresh(c *gin.Context) {
	if auth.UserRole(c) != stage.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin role required"})
		return
	}
	if h.refresher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "pricing refresh not configured"})
		return
	}

	n, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": n})
}
