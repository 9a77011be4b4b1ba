package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint (reservation per trip, user email).
	ErrDuplicate = errors.New("duplicate entity")

	// ErrStatusConflict is returned when a conditional status update
	// matched no row because the status changed concurrently.
	ErrStatusConflict = errors.New("status changed concurrently")
)
