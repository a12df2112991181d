package transport

import (
	"time"

	"github.com/kselvad/scoregrid/logger"
)

// Default connection parameters.
const (
	DefaultDialTimeout      = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultSendQueueSize    = 256
	DefaultReconnectMinWait = 500 * time.Millisecond
	DefaultReconnectMaxWait = 30 * time.Second
)

// Config holds the connection parameters of a Conn.
type Config struct {
	// URL is the websocket endpoint, e.g. "ws://host:8081/ws".
	URL string

	// DialTimeout bounds the websocket handshake.
	DialTimeout time.Duration

	// WriteTimeout bounds each outbound write.
	WriteTimeout time.Duration

	// SendQueueSize is the capacity of the outbound queue.
	SendQueueSize int

	// ReconnectMinWait and ReconnectMaxWait bound the exponential backoff
	// between reconnect attempts.
	ReconnectMinWait time.Duration
	ReconnectMaxWait time.Duration

	// Logger receives transport logs. Defaults to a no-op logger.
	Logger logger.Logger
}

// DefaultConfig returns the default connection parameters for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		DialTimeout:      DefaultDialTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		SendQueueSize:    DefaultSendQueueSize,
		ReconnectMinWait: DefaultReconnectMinWait,
		ReconnectMaxWait: DefaultReconnectMaxWait,
	}
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	if c.DialTimeout <= 0 || c.WriteTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.SendQueueSize <= 0 {
		return ErrInvalidQueueSize
	}
	if c.ReconnectMinWait <= 0 || c.ReconnectMaxWait < c.ReconnectMinWait {
		return ErrInvalidBackoff
	}
	return nil
}
