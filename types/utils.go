package types

import (
	"fmt"
	"strings"
)

// String helps with making field states readable in logs and debug output.
func (s FieldState) String() string {
	switch s {
	case StateRemote:
		return "Remote"
	case StateEditingMine:
		return "EditingMine"
	case StateEditingBlocked:
		return "EditingBlocked"
	case StatePendingConfirm:
		return "PendingConfirm"
	case StateOrphaned:
		return "Orphaned"
	default:
		return "Unknown"
	}
}

// IsValid checks if the state is one of the defined protocol states.
func (s FieldState) IsValid() bool {
	return s >= StateRemote && s <= StateOrphaned
}

// LockID renders the key in its wire form: "<user>:<criterion>".
// Comment fields use the reserved criterion name "comment".
func (k FieldKey) LockID() LockID {
	return LockID(fmt.Sprintf("%s:%s", k.User, k.Criterion))
}

// String returns the wire form; FieldKey logs the same way it travels.
func (k FieldKey) String() string {
	return string(k.LockID())
}

// ParseLockID splits a wire lock identifier back into a FieldKey.
// The user part may not be empty; the criterion part may, historically,
// contain further colons.
func ParseLockID(id LockID) (FieldKey, error) {
	user, criterion, ok := strings.Cut(string(id), ":")
	if !ok || user == "" || criterion == "" {
		return FieldKey{}, fmt.Errorf("malformed lock id %q", id)
	}
	return FieldKey{User: UserID(user), Criterion: CriterionID(criterion)}, nil
}
