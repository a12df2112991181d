package grid

import (
	"sync"

	"github.com/kselvad/scoregrid/types"
)

// FieldStore holds the client's belief about every field: the last known
// value and, while an edit is in flight, the token it is waiting on.
type FieldStore struct {
	mu      sync.RWMutex
	records map[types.FieldKey]*types.FieldRecord
}

// NewFieldStore returns an empty field store.
func NewFieldStore() *FieldStore {
	return &FieldStore{records: make(map[types.FieldKey]*types.FieldRecord)}
}

// Get returns a copy of the record for key. Absent fields read as a clean
// empty record so the UI can render sparsely populated grids uniformly.
func (s *FieldStore) Get(key types.FieldKey) types.FieldRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[key]; ok {
		return *r
	}
	return types.FieldRecord{Key: key}
}

// Dirty returns the pending token for key, or types.None.
func (s *FieldStore) Dirty(key types.FieldKey) types.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[key]; ok {
		return r.Dirty
	}
	return types.None
}

// SetLocal records a locally originated edit: the speculative value plus the
// freshly minted token it will be confirmed under.
func (s *FieldStore) SetLocal(key types.FieldKey, value string, token types.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.upsert(key)
	r.Value = value
	r.Dirty = token
}

// ApplyClean applies an authoritative confirmation. The value is taken and
// the dirty token cleared iff the echoed token matches the current pending
// token, or the record has nothing pending (a fresh load). A mismatched
// token is a stale echo for a superseded edit and must never overwrite a
// newer pending value; ApplyClean reports false and changes nothing.
func (s *FieldStore) ApplyClean(key types.FieldKey, value string, token types.Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.upsert(key)
	if r.Dirty != types.None && r.Dirty != token {
		return false
	}
	r.Value = value
	r.Dirty = types.None
	return true
}

// ApplyReset unconditionally installs the authoritative value and discards
// any pending edit.
func (s *FieldStore) ApplyReset(key types.FieldKey, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.upsert(key)
	r.Value = value
	r.Dirty = types.None
}

// ReplaceScores swaps in a freshly loaded set of scored-field values,
// discarding all previous score records. Comment records are untouched.
func (s *FieldStore) ReplaceScores(entries []types.ResultEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.records {
		if !key.IsComment() {
			delete(s.records, key)
		}
	}
	for _, e := range entries {
		key := types.ScoreKey(e.User, e.Criterion)
		s.records[key] = &types.FieldRecord{Key: key, Value: string(e.Value)}
	}
}

// ReplaceComments swaps in a freshly loaded set of comment values,
// discarding all previous comment records. Score records are untouched.
func (s *FieldStore) ReplaceComments(entries []types.CommentEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.records {
		if key.IsComment() {
			delete(s.records, key)
		}
	}
	for _, e := range entries {
		key := types.CommentKey(e.User)
		s.records[key] = &types.FieldRecord{Key: key, Value: string(e.Value)}
	}
}

// DropWhere removes every record whose key matches the predicate.
func (s *FieldStore) DropWhere(match func(types.FieldKey) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.records {
		if match(key) {
			delete(s.records, key)
		}
	}
}

// DirtyCount returns the number of fields awaiting confirmation.
func (s *FieldStore) DirtyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if r.Dirty != types.None {
			n++
		}
	}
	return n
}

// DirtyKeys returns the keys of all fields awaiting confirmation.
func (s *FieldStore) DirtyKeys() []types.FieldKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []types.FieldKey
	for key, r := range s.records {
		if r.Dirty != types.None {
			keys = append(keys, key)
		}
	}
	return keys
}

// upsert returns the record for key, creating it if absent.
// Callers must hold s.mu.
func (s *FieldStore) upsert(key types.FieldKey) *types.FieldRecord {
	if r, ok := s.records[key]; ok {
		return r
	}
	r := &types.FieldRecord{Key: key}
	s.records[key] = r
	return r
}
