package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// Handler exposes user listing and role administration.
type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

// Register attaches user routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/me", h.me)
	rg.PUT("/:subject/role", h.setRole)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "users": items})
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.repo.Get(c.Request.Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

type setRoleReq struct {
	Role string `json:"role"`
}

func (h *Handler) setRole(c *gin.Context) {
	if auth.UserRole(c) != stage.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin role required"})
		return
	}

	var req setRoleReq
	if err := c.ShouldBindJSON(&req); err != nil || !stage.ValidRole(stage.Role(req.Role)) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "role must be AE, SA or ADMIN"})
		return
	}

	err := h.repo.SetRole(c.Request.Context(), c.Param("subject"), stage.Role(req.Role))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
