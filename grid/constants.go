package grid

import "time"

// Time
const (
	// DefaultResetTimeout is how long a field may stay dirty without this
	// client holding its lock before the engine requests an authoritative
	// reset of the field.
	DefaultResetTimeout = 10 * time.Second

	// MinResetTimeout is the smallest accepted reset timeout.
	MinResetTimeout = 1 * time.Second
)
