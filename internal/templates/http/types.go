package http

import (
	"github.com/sowdesk/sowdesk-backend/internal/templates/repository"
)

// Handler exposes SOW template CRUD endpoints.
type Handler struct {
	repo *repository.TemplateRepository
}

// NewHandler creates a template handler.
func NewHandler(repo *repository.TemplateRepository) *Handler {
	return &Handler{repo: repo}
}
