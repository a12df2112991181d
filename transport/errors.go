package transport

import "errors"

var (
	// ErrConnClosed indicates an operation on a closed connection.
	ErrConnClosed = errors.New("transport: connection closed")

	// ErrSendQueueFull indicates the outbound queue is full and the action
	// was not sent.
	ErrSendQueueFull = errors.New("transport: send queue full")

	// ErrMissingURL indicates no websocket endpoint was configured.
	ErrMissingURL = errors.New("transport: missing url")

	// ErrInvalidTimeout indicates a non-positive timeout was configured.
	ErrInvalidTimeout = errors.New("transport: invalid timeout")

	// ErrInvalidQueueSize indicates a non-positive queue size was configured.
	ErrInvalidQueueSize = errors.New("transport: invalid send queue size")

	// ErrInvalidBackoff indicates inconsistent reconnect backoff bounds.
	ErrInvalidBackoff = errors.New("transport: invalid reconnect backoff bounds")
)
