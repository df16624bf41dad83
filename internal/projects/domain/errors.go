package domain

import "errors"

// Sentinel errors for the project domain. The HTTP layer maps these
// onto status codes; everything else wraps them with %w.
var (
	ErrNotFound     = errors.New("project not found")
	ErrAccessDenied = errors.New("access denied to project")
	ErrInvalidInput = errors.New("invalid input")
)
