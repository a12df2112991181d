package grid

import (
	"time"

	"github.com/kselvad/scoregrid/clock"
	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/types"

	"github.com/google/uuid"
)

// Config holds the tunable parameters of a sync engine.
type Config struct {
	// ResetTimeout is how long a dirty field may remain without this client
	// holding its lock before an authoritative reset is requested.
	ResetTimeout time.Duration

	// Logger receives structured protocol logs. Defaults to a no-op logger.
	Logger logger.Logger

	// Metrics receives protocol counters. Defaults to a no-op recorder.
	Metrics Metrics

	// Clock supplies timers; replaced by a mock in tests.
	Clock clock.Clock

	// TokenSource mints dirty tokens. Defaults to random UUIDs.
	TokenSource func() types.Token
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		ResetTimeout: DefaultResetTimeout,
		TokenSource: func() types.Token {
			return types.Token(uuid.NewString())
		},
	}
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	if c.ResetTimeout < MinResetTimeout {
		return ErrInvalidResetTimeout
	}
	return nil
}

// EngineOption customizes an Engine at construction time.
type EngineOption func(*Config)

// WithResetTimeout overrides the orphaned-edit reset timeout.
func WithResetTimeout(d time.Duration) EngineOption {
	return func(c *Config) { c.ResetTimeout = d }
}

// WithLogger sets the logger used by the engine.
func WithLogger(l logger.Logger) EngineOption {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics sets the metrics recorder used by the engine.
func WithMetrics(m Metrics) EngineOption {
	return func(c *Config) { c.Metrics = m }
}

// WithClock provides a custom clock implementation, primarily useful for
// testing time-dependent behavior.
func WithClock(cl clock.Clock) EngineOption {
	return func(c *Config) { c.Clock = cl }
}

// WithTokenSource replaces the dirty-token generator, primarily for tests
// that need predictable tokens.
func WithTokenSource(fn func() types.Token) EngineOption {
	return func(c *Config) { c.TokenSource = fn }
}
