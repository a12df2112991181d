package server

import (
	"time"

	"github.com/kselvad/scoregrid/clock"
	"github.com/kselvad/scoregrid/logger"
)

// Config holds the hub's tunable parameters.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8081".
	ListenAddr string

	// ContestName and TaskName are announced to clients in app/ready.
	ContestName string
	TaskName    string

	// ReadOnly starts the board frozen: every mutating action is rejected.
	ReadOnly bool

	// SnapshotPath is the bbolt file the authoritative state is persisted
	// to. Empty disables persistence.
	SnapshotPath string

	// RateLimitRequests/RateLimitBurst/RateLimitWindow configure the
	// per-connection token bucket.
	RateLimitRequests int
	RateLimitBurst    int
	RateLimitWindow   time.Duration

	// SendQueueSize is the per-session outbound queue capacity.
	SendQueueSize int

	// WriteTimeout bounds each outbound websocket write.
	WriteTimeout time.Duration

	// Logger receives hub logs. Defaults to a no-op logger.
	Logger logger.Logger

	// Metrics receives hub counters. Defaults to a no-op recorder.
	Metrics Metrics

	// Clock supplies session timestamps; replaced by a mock in tests.
	Clock clock.Clock
}

// DefaultConfig returns the default hub configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        DefaultListenAddr,
		SnapshotPath:      DefaultSnapshotPath,
		RateLimitRequests: DefaultRateLimitRequests,
		RateLimitBurst:    DefaultRateLimitBurst,
		RateLimitWindow:   DefaultRateLimitWindow,
		SendQueueSize:     DefaultSendQueueSize,
		WriteTimeout:      DefaultWriteTimeout,
	}
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return ErrInvalidListenAddr
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return ErrInvalidRateLimit
	}
	if c.SendQueueSize <= 0 {
		return ErrInvalidSendQueue
	}
	return nil
}
