package grid

import (
	"sync"

	"github.com/kselvad/scoregrid/types"
)

// editSession tracks which fields this client currently has input focus on.
// Focus is purely local and ephemeral; it never leaves the client except as
// the acquire/release side effects the engine emits.
type editSession struct {
	mu      sync.RWMutex
	focused map[types.FieldKey]struct{}
}

func newEditSession() *editSession {
	return &editSession{focused: make(map[types.FieldKey]struct{})}
}

func (s *editSession) focus(key types.FieldKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused[key] = struct{}{}
}

func (s *editSession) blur(key types.FieldKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.focused, key)
}

func (s *editSession) has(key types.FieldKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.focused[key]
	return ok
}
