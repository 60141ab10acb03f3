package domain

import (
	"errors"
	"time"
)

// Notification is a user-visible event record. State is server-owned; the
// dashboard mirrors it optimistically and reconciles on response.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	DealID    string    `json:"deal_id,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification types.
const (
	TypeStageComplete   = "stage_complete"
	TypeDealAssigned    = "deal_assigned"
	TypeReviewRequested = "review_requested"
)

var ErrNotFound = errors.New("notification not found")
