package data

import "errors"

var (
	// ErrNotFound is returned when a document does not exist or is soft-deleted.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a conditional write finds the document in another state.
	ErrConflict = errors.New("document changed concurrently")
	// ErrDuplicate is returned when a unique value is already taken.
	ErrDuplicate = errors.New("duplicate value")
)
