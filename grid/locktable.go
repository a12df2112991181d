package grid

import (
	"sync"

	"github.com/kselvad/scoregrid/types"
)

// LockTable maps each field to the client currently holding its lock.
// It is mutated only by replaying authoritative locks/acquire and
// locks/release broadcasts verbatim; the client never arbitrates lock
// conflicts itself, so no merge conflicts are possible locally.
type LockTable struct {
	mu      sync.RWMutex
	holders map[types.FieldKey]types.ClientID
}

// NewLockTable returns an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{holders: make(map[types.FieldKey]types.ClientID)}
}

// Holder returns the client currently holding the lock for key, if any.
func (t *LockTable) Holder(key types.FieldKey) (types.ClientID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	holder, ok := t.holders[key]
	return holder, ok
}

// IsMine reports whether self currently holds the lock for key.
func (t *LockTable) IsMine(key types.FieldKey, self types.ClientID) bool {
	if self == "" {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.holders[key] == self
}

// Acquire records holder as the owner of key. A later acquire for the same
// key supersedes the previous holder (last writer wins at the authoritative
// source). Call only when replaying an authoritative broadcast.
func (t *LockTable) Acquire(key types.FieldKey, holder types.ClientID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.holders[key] = holder
}

// Release removes any holder recorded for key. Call only when replaying an
// authoritative broadcast.
func (t *LockTable) Release(key types.FieldKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.holders, key)
}

// DropWhere removes every entry whose key matches the predicate. Used when
// a user or criterion is deleted and its fields cease to exist.
func (t *LockTable) DropWhere(match func(types.FieldKey) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.holders {
		if match(key) {
			delete(t.holders, key)
		}
	}
}

// Len returns the number of currently held locks.
func (t *LockTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.holders)
}

// Snapshot returns a copy of the current holder mapping.
func (t *LockTable) Snapshot() map[types.FieldKey]types.ClientID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[types.FieldKey]types.ClientID, len(t.holders))
	for k, v := range t.holders {
		out[k] = v
	}
	return out
}
