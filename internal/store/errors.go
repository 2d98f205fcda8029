package store

import "errors"

// Sentinel errors surfaced by the storage layer. Services translate these
// into coded domain errors before they reach API clients.
var (
	// ErrNotFound is returned when no record matches the requested key or index.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when a create would violate a primary key
	// or unique index. This is the consistency backstop for concurrent
	// find-or-create races: the losing writer observes this error.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrConflict is returned when Badger aborts a write transaction because
	// it overlapped a concurrent commit. The write never happened; retrying
	// is safe.
	ErrConflict = errors.New("transaction conflict")
)
