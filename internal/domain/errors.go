package domain

import "errors"

var (
	// ErrInvalidInput marks bad caller-supplied parameters (projection
	// amount/months, missing asset). Surfaced, never silently corrected.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRecord marks an upstream asset record that fails validation
	// and must be dropped before scoring or persistence.
	ErrInvalidRecord = errors.New("invalid asset record")

	// ErrNotFound marks a lookup for an asset id we have no data for.
	ErrNotFound = errors.New("asset not found")
)
