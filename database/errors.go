package database

import "errors"

var (
	// ErrNotFound is returned by repositories when no document matches.
	ErrNotFound = errors.New("document not found")

	// ErrVersionConflict signals a compare-and-swap write lost against a concurrent writer.
	ErrVersionConflict = errors.New("document version mismatch")

	// ErrDuplicateKey is returned when a unique index rejects an insert.
	ErrDuplicateKey = errors.New("duplicate key")
)
