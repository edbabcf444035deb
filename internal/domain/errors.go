package domain

import "errors"

// Sentinel errors shared across services and the API layer.
var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrCohortNotFound = errors.New("cohort not found")
)
