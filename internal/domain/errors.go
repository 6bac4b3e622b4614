package domain

import "errors"

var (
	// ErrValidation marks input that was rejected before reaching storage.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a lookup for an entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an update rejected because the stored state changed
	// since it was read (stale optimistic precondition).
	ErrConflict = errors.New("conflict")
)
