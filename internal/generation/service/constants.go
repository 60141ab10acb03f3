package service

import "time"

const (
	// DefaultTimeout covers status reads from the orchestrator.
	DefaultTimeout = 15 * time.Second

	// StartTimeout covers execution starts; the orchestrator validates the
	// deal's transcripts and template before returning an execution id.
	StartTimeout = 90 * time.Second
)
