package models

import "errors"

// Failure taxonomy surfaced by the engine. Components wrap these with
// context via fmt.Errorf("...: %w", err); the API layer maps them to
// HTTP statuses with errors.Is.
var (
	// ErrUnauthorized means the caller presented no valid identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means a referenced id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input was malformed or incomplete.
	ErrValidation = errors.New("validation failed")

	// ErrStorage means the backing store is unreachable or returned
	// a corrupt payload.
	ErrStorage = errors.New("storage failure")
)
