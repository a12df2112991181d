package server

import (
	"sync"
	"time"

	"github.com/kselvad/scoregrid/clock"
	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/types"
)

// SessionInfo holds metadata about one connected client.
type SessionInfo struct {
	ClientID    types.ClientID // Server-assigned connection identity
	RemoteAddr  string         // Client's remote address
	ConnectedAt time.Time      // Time the connection was established
	LastActive  time.Time      // Last time an action was received
	ActionCount int64          // Total number of actions from this session
}

// sessionTracker records connection lifecycle and activity for the hub's
// introspection endpoint and logs.
type sessionTracker struct {
	mu sync.RWMutex

	sessions map[types.ClientID]*SessionInfo

	metrics Metrics
	logger  logger.Logger
	clock   clock.Clock
}

func newSessionTracker(metrics Metrics, log logger.Logger, clk clock.Clock) *sessionTracker {
	return &sessionTracker{
		sessions: make(map[types.ClientID]*SessionInfo),
		metrics:  metrics,
		logger:   log.WithComponent("tracker"),
		clock:    clk,
	}
}

// OnConnect registers a new client session.
func (t *sessionTracker) OnConnect(id types.ClientID, remoteAddr string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.sessions[id] = &SessionInfo{
		ClientID:    id,
		RemoteAddr:  remoteAddr,
		ConnectedAt: now,
		LastActive:  now,
	}
	t.metrics.SetActiveSessions(len(t.sessions))
	t.logger.Debugw("client connected", "client", id, "remote_addr", remoteAddr, "total", len(t.sessions))
}

// OnDisconnect unregisters a client session.
func (t *sessionTracker) OnDisconnect(id types.ClientID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[id]; !ok {
		return
	}
	delete(t.sessions, id)
	t.metrics.SetActiveSessions(len(t.sessions))
	t.logger.Debugw("client disconnected", "client", id, "total", len(t.sessions))
}

// OnAction updates activity for a session.
func (t *sessionTracker) OnAction(id types.ClientID) {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.sessions[id]
	if !ok {
		t.logger.Debugw("action from unknown session", "client", id)
		return
	}
	info.LastActive = now
	info.ActionCount++
}

// ActiveSessions returns the current number of connected clients.
func (t *sessionTracker) ActiveSessions() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Snapshot returns a copy of all session info.
func (t *sessionTracker) Snapshot() map[types.ClientID]SessionInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[types.ClientID]SessionInfo, len(t.sessions))
	for id, info := range t.sessions {
		out[id] = *info
	}
	return out
}
