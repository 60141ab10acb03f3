package http

import (
	"github.com/sowdesk/sowdesk-backend/internal/generation/service"
)

// Handler serves the generation endpoints.
type Handler struct {
	genService     *service.GenerationService
	callbackSecret string
}

func New(genService *service.GenerationService, callbackSecret string) *Handler {
	return &Handler{
		genService:     genService,
		callbackSecret: callbackSecret,
	}
}

// PipelineCallbackBody is the callback payload from the orchestrator.
type PipelineCallbackBody struct {
	ExecutionID     string                 `json:"execution_id"`
	Progress        string                 `json:"sow_gen_progress"`
	TimestampUnixMs int64                  `json:"timestamp"`
	Details         map[string]interface{} `json:"details,omitempty"`
	Error           string                 `json:"error,omitempty"`
}
