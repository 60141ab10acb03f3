package domain

import "errors"

var (
	ErrNotFound      = errors.New("deal not found")
	ErrInvalidStatus = errors.New("invalid deal status")
)
