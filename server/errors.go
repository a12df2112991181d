package server

import "errors"

var (
	// ErrReadOnly indicates a mutating action arrived while the board is
	// read-only (configured so, or judging finished).
	ErrReadOnly = errors.New("server: board is read-only")

	// ErrRateLimited indicates a connection exceeded its action budget.
	ErrRateLimited = errors.New("server: rate limited")

	// ErrUnknownAction indicates an action name the hub does not handle.
	ErrUnknownAction = errors.New("server: unknown action")

	// ErrInvalidListenAddr indicates an empty listen address.
	ErrInvalidListenAddr = errors.New("server: invalid listen address")

	// ErrInvalidRateLimit indicates a non-positive rate limit configuration.
	ErrInvalidRateLimit = errors.New("server: invalid rate limit")

	// ErrInvalidSendQueue indicates a non-positive send queue size.
	ErrInvalidSendQueue = errors.New("server: invalid send queue size")
)
