package domain

import "errors"

var (
	ErrRunNotFound     = errors.New("generation run not found")
	ErrUnknownArtifact = errors.New("unknown artifact")
	ErrNotSubmittable  = errors.New("deal is not ready for submission")
	ErrStageLocked     = errors.New("stage prerequisites not met")
)
