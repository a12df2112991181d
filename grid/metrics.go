package grid

import "github.com/kselvad/scoregrid/types"

// Metrics defines the interface for recording protocol counters.
// All methods must be safe for concurrent use.
type Metrics interface {
	// IncrLocalEdit increments counters for locally originated edits.
	IncrLocalEdit(key types.FieldKey)

	// IncrWrite increments counters for transmitted write actions.
	IncrWrite(action string)

	// IncrSuppressedWrite increments counters for writes withheld because
	// the value was a syntactically incomplete numeric literal.
	IncrSuppressedWrite(key types.FieldKey)

	// IncrCleanConfirm increments counters for authoritative echoes that
	// matched the pending token and cleared a dirty field.
	IncrCleanConfirm(key types.FieldKey)

	// IncrStaleEcho increments counters for authoritative echoes ignored
	// because their token no longer matched the pending edit.
	IncrStaleEcho(key types.FieldKey)

	// IncrOrphanReset increments counters for timeout-triggered resets of
	// abandoned edits.
	IncrOrphanReset(key types.FieldKey)

	// SetDirtyFields records the current number of fields awaiting
	// confirmation.
	SetDirtyFields(count int)

	// Reset clears all metrics.
	Reset()
}

// NoOpMetrics is a Metrics implementation that records nothing.
type NoOpMetrics struct{}

func (NoOpMetrics) IncrLocalEdit(types.FieldKey)       {}
func (NoOpMetrics) IncrWrite(string)                   {}
func (NoOpMetrics) IncrSuppressedWrite(types.FieldKey) {}
func (NoOpMetrics) IncrCleanConfirm(types.FieldKey)    {}
func (NoOpMetrics) IncrStaleEcho(types.FieldKey)       {}
func (NoOpMetrics) IncrOrphanReset(types.FieldKey)     {}
func (NoOpMetrics) SetDirtyFields(int)                 {}
func (NoOpMetrics) Reset()                             {}
