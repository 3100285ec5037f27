package store

import "errors"

var (
	// ErrNotFound is returned by mutating operations that target a missing row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a row whose key already exists.
	ErrConflict = errors.New("already exists")
)
