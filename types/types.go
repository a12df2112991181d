package types

// ClientID uniquely identifies one live connection to the authoritative
// server. It is assigned by the server on connect and remains stable for the
// lifetime of that connection.
type ClientID string

// UserID identifies a scored subject (a contestant row in the grid).
type UserID string

// CriterionID identifies one scoring criterion (a column in the grid).
type CriterionID string

// JudgeID identifies a judge account.
type JudgeID string

// Token is an opaque identifier minted per local edit. An authoritative
// confirmation carrying the same token proves it echoes that exact edit.
type Token string

// None is the zero Token, meaning no edit is pending.
const None Token = ""

// LockID is the wire form of a lockable field: "<user>:<criterion>" for a
// scored field, "<user>:comment" for a comment field.
type LockID string

// CommentField is the pseudo-criterion naming a user's comment field.
const CommentField CriterionID = "comment"

// FieldKey identifies one lockable, editable unit of the grid.
// It is a pure value: comparable, immutable, usable as a map key.
type FieldKey struct {
	User      UserID
	Criterion CriterionID
}

// ScoreKey returns the FieldKey for the (user, criterion) scored field.
func ScoreKey(user UserID, criterion CriterionID) FieldKey {
	return FieldKey{User: user, Criterion: criterion}
}

// CommentKey returns the FieldKey for a user's free-text comment field.
func CommentKey(user UserID) FieldKey {
	return FieldKey{User: user, Criterion: CommentField}
}

// IsComment reports whether the key names a comment field rather than a
// scored field.
func (k FieldKey) IsComment() bool {
	return k.Criterion == CommentField
}

// FieldRecord is the client's belief about one field: the last known value
// and, while an edit is in flight, the token that must come back before the
// field is considered clean again.
type FieldRecord struct {
	Key   FieldKey
	Value string
	Dirty Token
}

// IsDirty reports whether a local edit is awaiting authoritative
// confirmation.
func (r FieldRecord) IsDirty() bool {
	return r.Dirty != None
}

// FieldState is the derived per-field protocol state. It is never stored;
// it is computed from (dirty, lock holder, focus) on demand.
type FieldState int

const (
	// StateRemote: no pending local edit, no relevant local focus.
	StateRemote FieldState = iota

	// StateEditingMine: this client holds the lock and has focus.
	StateEditingMine

	// StateEditingBlocked: this client has focus but the lock is held
	// elsewhere (or not yet granted); local edits are not applied.
	StateEditingBlocked

	// StatePendingConfirm: a local edit is awaiting its authoritative echo.
	StatePendingConfirm

	// StateOrphaned: a local edit is pending but this client no longer holds
	// the lock; candidate for automatic reset.
	StateOrphaned
)
