package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an insert conflicts on the unique email key.
	ErrDuplicateEmail = errors.New("email already registered")
)
