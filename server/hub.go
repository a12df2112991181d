package server

import (
	"encoding/json"
	"sync"

	"github.com/kselvad/scoregrid/clock"
	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/types"

	"github.com/google/uuid"
)

// session is one connected client as the hub sees it: an identity, an
// outbound queue, and a rate limiter. The websocket itself lives in the
// connection handler; the hub only ever touches the queue.
type session struct {
	id      types.ClientID
	send    chan types.Envelope
	limiter RateLimiter
}

// Hub owns the authoritative board state and fans every accepted mutation
// out to all connected clients, including the one that submitted it.
type Hub struct {
	cfg     Config
	logger  logger.Logger
	metrics Metrics
	clk     clock.Clock

	mu       sync.Mutex
	state    *boardState
	sessions map[types.ClientID]*session
	readOnly bool

	tracker *sessionTracker
	store   SnapshotStore
}

// NewHub builds a hub around the given snapshot store. A previously
// persisted snapshot, if any, is restored before the first client connects.
func NewHub(cfg Config, store SnapshotStore) (*Hub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoOpMetrics{}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewStandardClock()
	}
	if store == nil {
		store = noopSnapshotStore{}
	}

	h := &Hub{
		cfg:      cfg,
		logger:   log.WithComponent("hub"),
		metrics:  metrics,
		clk:      clk,
		state:    newBoardState(),
		sessions: make(map[types.ClientID]*session),
		readOnly: cfg.ReadOnly,
		tracker:  newSessionTracker(metrics, log, clk),
		store:    store,
	}

	data, err := store.Load()
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := h.state.restore(data); err != nil {
			return nil, err
		}
		if h.state.finished {
			h.readOnly = true
		}
		h.logger.Infow("restored snapshot",
			"criteria", len(h.state.criteria),
			"users", len(h.state.users),
			"judges", len(h.state.judges),
			"finished", h.state.finished)
	}
	return h, nil
}

// Bootstrap seeds an empty board with an initial roster. It is a no-op
// when a restored snapshot already populated the state, so a restart never
// clobbers live data.
func (h *Hub) Bootstrap(criteria []types.Criterion, judges []types.Judge, users []types.User) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.state.criteria) > 0 || len(h.state.users) > 0 || len(h.state.judges) > 0 {
		return
	}
	h.state.criteria = append([]types.Criterion(nil), criteria...)
	h.state.judges = append([]types.Judge(nil), judges...)
	h.state.users = append([]types.User(nil), users...)
	h.state.renumberCriteria()
	h.logger.Infow("bootstrapped roster",
		"criteria", len(criteria), "judges", len(judges), "users", len(users))
}

// Register admits a new connection: assigns it a ClientID, greets it with
// app/ready, and replays the full board state. The returned channel feeds
// the connection's write loop and is closed by Unregister.
func (h *Hub) Register(remoteAddr string) (types.ClientID, <-chan types.Envelope) {
	id := types.ClientID(uuid.NewString())
	sess := &session{
		id:   id,
		send: make(chan types.Envelope, h.cfg.SendQueueSize),
		limiter: newTokenBucketLimiter(
			h.cfg.RateLimitRequests, h.cfg.RateLimitBurst, h.cfg.RateLimitWindow, h.logger),
	}

	h.mu.Lock()
	h.sessions[id] = sess
	h.enqueue(sess, types.EventAppReady, types.ReadyPayload{
		ClientID:    id,
		ReadOnly:    h.readOnly,
		ContestName: h.cfg.ContestName,
		TaskName:    h.cfg.TaskName,
	})
	h.enqueue(sess, types.EventCriteriaLoad, h.state.criteria)
	h.enqueue(sess, types.EventJudgesLoad, h.state.judges)
	h.enqueue(sess, types.EventUsersLoad, h.state.users)
	h.enqueue(sess, types.EventResultsLoad, h.state.resultEntries())
	h.enqueue(sess, types.EventCommentsLoad, h.state.commentEntries())
	for lock, holder := range h.state.locks {
		h.enqueue(sess, types.EventLockAcquire, types.LockAcquirePayload{Lock: lock, ClientID: holder})
	}
	h.mu.Unlock()

	h.tracker.OnConnect(id, remoteAddr)
	return id, sess.send
}

// Unregister removes a departed connection and releases every lock it
// held, broadcasting each release so other clients unfreeze those fields.
func (h *Hub) Unregister(id types.ClientID) {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, id)
	close(sess.send)
	released := h.state.releaseAllHeldBy(id)
	for _, lock := range released {
		h.broadcast(types.EventLockRelease, types.LockReleasePayload{Lock: lock})
	}
	h.mu.Unlock()

	h.tracker.OnDisconnect(id)
	if len(released) > 0 {
		h.logger.Infow("released locks of departed client", "client", id, "count", len(released))
	}
}

// HandleAction processes one client request. Accepted mutations are
// applied to the authoritative state and echoed to everyone; rejected ones
// are dropped silently apart from logs and counters, matching the
// fire-and-forget protocol.
func (h *Hub) HandleAction(id types.ClientID, action string, payload json.RawMessage) error {
	h.tracker.OnAction(id)

	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok {
		return nil
	}
	if !sess.limiter.Allow() {
		h.metrics.IncrRejected("rate_limited")
		h.logger.Warnw("rate limited", "client", id, "request", action)
		return ErrRateLimited
	}
	if h.readOnly {
		h.metrics.IncrRejected("read_only")
		h.logger.Debugw("rejected action on read-only board", "client", id, "request", action)
		return ErrReadOnly
	}

	err := h.dispatch(id, action, payload)
	switch err {
	case nil:
		h.metrics.IncrAction(action)
		h.persistLocked()
	case ErrUnknownAction:
		h.metrics.IncrRejected("unknown")
		h.logger.Warnw("unknown action", "client", id, "request", action)
	default:
		h.metrics.IncrRejected("malformed")
		h.logger.Warnw("rejected action", "client", id, "request", action, "error", err)
	}
	return err
}

// SetReadOnly toggles the freeze at runtime (admin surface).
func (h *Hub) SetReadOnly(ro bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readOnly = ro
}

// ReadOnly reports whether the board currently rejects mutations.
func (h *Hub) ReadOnly() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readOnly
}

// Sessions exposes tracked session info for the introspection endpoint.
func (h *Hub) Sessions() map[types.ClientID]SessionInfo {
	return h.tracker.Snapshot()
}

// Close persists a final snapshot and closes the store.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.persistLocked()
	h.mu.Unlock()
	return h.store.Close()
}

// broadcast queues an event for every connected session. Callers hold h.mu.
func (h *Hub) broadcast(event string, payload any) {
	h.metrics.IncrBroadcast(event)
	for _, sess := range h.sessions {
		h.enqueue(sess, event, payload)
	}
}

// enqueue marshals and queues one event for one session, dropping it when
// the session's queue is full. A slow reader loses broadcasts rather than
// stalling the hub; it resyncs on reconnect. Callers hold h.mu.
func (h *Hub) enqueue(sess *session, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorw("marshal broadcast payload", "event", event, "error", err)
		return
	}
	select {
	case sess.send <- types.Envelope{Action: event, Payload: data}:
	default:
		h.metrics.IncrDroppedSend()
		h.logger.Warnw("send queue full, dropping event", "client", sess.id, "event", event)
	}
}

// persistLocked writes the current state through the snapshot store.
// Callers hold h.mu.
func (h *Hub) persistLocked() {
	data, err := h.state.snapshot()
	if err != nil {
		h.logger.Errorw("encode snapshot", "error", err)
		return
	}
	if err := h.store.Save(data); err != nil {
		h.logger.Errorw("persist snapshot", "error", err)
	}
}
