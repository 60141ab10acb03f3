package domain

import (
	"time"

	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// Deal is a CRM record mirrored read-only from HubSpot. Assignee is the only
// field mutable from this service; everything else is overwritten on sync.
type Deal struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Amount     float64          `json:"amount"`
	Currency   string           `json:"currency"`
	OwnerEmail string           `json:"owner_email"`
	Assignee   string           `json:"assignee,omitempty"`
	Status     stage.DealStatus `json:"status"`
	TargetDate *time.Time       `json:"target_date,omitempty"`
	SyncedAt   time.Time        `json:"synced_at"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// ListFilter narrows the deal list. Zero values mean "no constraint".
type ListFilter struct {
	Assignee     string
	OwnerEmail   string
	Status       stage.DealStatus
	Search       string
	TargetAfter  *time.Time
	TargetBefore *time.Time
	Limit        int
	Offset       int
}

// Metadata is the per-deal payload the dashboard renders from: the mirrored
// record, the current generation progress, and the stage projection computed
// for the caller's role.
type Metadata struct {
	Deal       Deal             `json:"deal"`
	Progress   stage.Progress   `json:"sow_gen_progress"`
	Status     stage.DealStatus `json:"status"`
	Projection stage.Projection `json:"projection"`
}
