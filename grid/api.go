// Package grid implements the field-level lock and optimistic dirty-state
// synchronization protocol for the shared scoring grid.
//
// Each editable field (a per-user per-criterion score, or a per-user
// comment) moves between derived states — Remote, EditingMine,
// EditingBlocked, PendingConfirm, Orphaned — in response to discrete events:
// local focus/blur/change, authoritative broadcasts, and timer expiry. The
// engine never predicts the authoritative source; it only holds beliefs
// (FieldStore, LockTable) that chase it and reconciles them with matching
// tokens.
package grid

// Performer is the outbound half of the duplex channel to the authoritative
// server: a fire-and-forget send of a named action with a payload. No
// synchronous response is awaited; all responses arrive later as broadcast
// events, including to the sender.
type Performer interface {
	Perform(action string, payload any) error
}

// PerformerFunc adapts a function to the Performer interface.
type PerformerFunc func(action string, payload any) error

func (f PerformerFunc) Perform(action string, payload any) error {
	return f(action, payload)
}
