package domain

import (
	"time"

	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// GenerationRun tracks one pipeline execution for a deal. Progress is owned
// by the orchestrator; this service records what it reports, enforces
// monotonicity, and latches stage completions so the poll and push channels
// can both deliver without double effects.
type GenerationRun struct {
	RunID       string                 `json:"run_id"`
	DealID      string                 `json:"deal_id"`
	UserID      string                 `json:"user_id"`
	ExecutionID string                 `json:"execution_id"` // ID from the orchestrator
	Progress    stage.Progress         `json:"sow_gen_progress"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	SubmittedAt *time.Time             `json:"submitted_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Active reports whether the orchestrator is still working on this run and
// the status poller should keep watching it.
func (r *GenerationRun) Active() bool {
	switch r.Progress {
	case stage.SOWInProgress, stage.ArchitectureInProgress, stage.TCOInProgress:
		return true
	}
	return false
}

// Artifact names a generated document kind.
type Artifact string

const (
	ArtifactSOW          Artifact = "sow"
	ArtifactArchitecture Artifact = "architecture"
	ArtifactTCO          Artifact = "tco"
)

// Stages returns the in-progress and completed stage for the artifact.
func (a Artifact) Stages() (inProgress, generated stage.Progress, ok bool) {
	switch a {
	case ArtifactSOW:
		return stage.SOWInProgress, stage.SOWGenerated, true
	case ArtifactArchitecture:
		return stage.ArchitectureInProgress, stage.ArchitectureGenerated, true
	case ArtifactTCO:
		return stage.TCOInProgress, stage.TCOGenerated, true
	}
	return "", "", false
}
