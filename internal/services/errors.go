package services

import "errors"

// Error kinds surfaced to the HTTP layer. Service errors wrap one of these so
// callers can branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrDownstream   = errors.New("downstream failure")
	ErrStorage      = errors.New("storage failure")
)
