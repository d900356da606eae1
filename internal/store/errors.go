package store

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateEmail is returned when a user with the same email already exists.
	ErrDuplicateEmail = errors.New("store: duplicate email")
	// ErrForeignKey is returned when a referenced row does not exist,
	// e.g. a ticket pointing at an unknown resident.
	ErrForeignKey = errors.New("store: referenced row missing")
)
