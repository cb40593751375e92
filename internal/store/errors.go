package store

import "errors"

var (
	// ErrConflict means the write would overlap a confirmed appointment.
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
)
