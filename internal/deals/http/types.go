package http

import (
	"context"

	dealsvc "github.com/sowdesk/sowdesk-backend/internal/deals/service"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// ProgressReader reports the current generation stage for a deal. The
// generation service implements it; handlers fall back to NOT_STARTED when
// no run exists.
type ProgressReader interface {
	ProgressForDeal(ctx context.Context, dealID string) (stage.Progress, error)
}

// Handler serves the deal endpoints.
type Handler struct {
	svc      *dealsvc.DealService
	progress ProgressReader
}

func New(svc *dealsvc.DealService, progress ProgressReader) *Handler {
	return &Handler{svc: svc, progress: progress}
}

type assignReq struct {
	Assignee string `json:"assignee"`
}

type statusReq struct {
	Status string `json:"status"`
}
