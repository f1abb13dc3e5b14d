package storage

import "errors"

var (
	// ErrNotFound is returned for an unknown particle code, particle name,
	// event ID or run.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a particle code or name, a decay
	// table, an event ID or a (run, set-up) aggregate is already stored.
	// Records are never overwritten.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for a particle without code, name or a
	// known type tag, an empty decay table, an event without ID, an aggregate
	// without run ID or an event filter naming an unknown channel.
	ErrInvalidInput = errors.New("invalid input")
)
