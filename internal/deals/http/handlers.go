package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/deals/domain"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

func (h *Handler) list(c *gin.Context) {
	f := domain.ListFilter{
		Assignee:   c.Query("assignee"),
		OwnerEmail: c.Query("owner"),
		Search:     c.Query("q"),
	}

	if s := c.Query("status"); s != "" {
		status := stage.DealStatus(strings.ToUpper(s))
		if !stage.ValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown status filter"})
			return
		}
		f.Status = status
	}

	if v := c.Query("target_after"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "target_after must be YYYY-MM-DD"})
			return
		}
		f.TargetAfter = &t
	}
	if v := c.Query("target_before"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "target_before must be YYYY-MM-DD"})
			return
		}
		f.TargetBefore = &t
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Offset = n
		}
	}

	items, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to list deals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deals": items})
}

// get returns the deal plus the metadata the dashboard renders from: current
// progress and the stage projection computed for the caller's role. If the
// progress lookup fails the response degrades to NOT_STARTED rather than
// guessing a stage.
func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")

	deal, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "deal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to get deal"})
		return
	}

	progress := stage.NotStarted
	if p, err := h.progress.ProgressForDeal(c.Request.Context(), id); err == nil && stage.Valid(p) {
		progress = p
	}

	role := auth.UserRole(c)
	meta := domain.Metadata{
		Deal:       *deal,
		Progress:   progress,
		Status:     deal.Status,
		Projection: stage.Project(progress, deal.Status, role),
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "metadata": meta})
}

func (h *Handler) assign(c *gin.Context) {
	id := c.Param("id")

	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	deal, err := h.svc.Assign(c.Request.Context(), id, strings.TrimSpace(req.Assignee))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "deal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to update assignee"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "deal": deal})
}

// setStatus records a review decision. Reviewers (SA or admin) only; the
// submit endpoint is how a deal enters TECHNICAL_REVIEW in the first place.
func (h *Handler) setStatus(c *gin.Context) {
	role := auth.UserRole(c)
	if role != stage.RoleSolutionArchitect && role != stage.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "reviewer role required"})
		return
	}

	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	status := stage.DealStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !stage.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown status"})
		return
	}

	if err := h.svc.SetDealStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "deal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to update status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) sync(c *gin.Context) {
	id := c.Param("id")

	deal, err := h.svc.SyncOne(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "deal not found in CRM"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "crm sync failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "deal": deal})
}
