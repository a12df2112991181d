package grid

import "errors"

var (
	// ErrReadOnly indicates a mutating operation was attempted while the
	// session is in read-only mode.
	ErrReadOnly = errors.New("grid: session is read-only")

	// ErrEditBlocked indicates a local change was rejected because the
	// field is focused but its lock is held by another client (or not yet
	// granted).
	ErrEditBlocked = errors.New("grid: field is locked by another client")

	// ErrInvalidResetTimeout indicates a non-positive or too small reset
	// timeout was configured.
	ErrInvalidResetTimeout = errors.New("grid: invalid reset timeout")
)
