package storage

import "errors"

// Sentinel errors shared by every backend. Drivers' errors are translated to these.
var (
	// ErrNotFound means no issuance or event exists for the requested key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means the key is already taken. Issuance records and
	// mint events are written once and never updated.
	ErrDuplicateKey = errors.New("duplicate key: records are written once")

	// ErrInvalidInput means a record is missing its key.
	ErrInvalidInput = errors.New("invalid input")
)
