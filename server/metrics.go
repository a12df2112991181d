package server

// Metrics defines the interface for recording hub counters.
// All methods must be safe for concurrent use.
type Metrics interface {
	// SetActiveSessions records the current number of connected clients.
	SetActiveSessions(count int)

	// IncrAction increments counters for handled client actions.
	IncrAction(action string)

	// IncrRejected increments counters for rejected actions, labeled with
	// the rejection reason ("read_only", "rate_limited", "malformed",
	// "unknown").
	IncrRejected(reason string)

	// IncrBroadcast increments counters for emitted broadcast events.
	IncrBroadcast(event string)

	// IncrDroppedSend increments counters for broadcasts dropped because a
	// session's queue was full.
	IncrDroppedSend()

	// Reset clears all metrics.
	Reset()
}

// NoOpMetrics is a Metrics implementation that records nothing.
type NoOpMetrics struct{}

func (NoOpMetrics) SetActiveSessions(int) {}
func (NoOpMetrics) IncrAction(string)     {}
func (NoOpMetrics) IncrRejected(string)   {}
func (NoOpMetrics) IncrBroadcast(string)  {}
func (NoOpMetrics) IncrDroppedSend()      {}
func (NoOpMetrics) Reset()                {}
