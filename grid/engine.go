package grid

import (
	"sync"

	"github.com/kselvad/scoregrid/clock"
	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/types"
)

// Engine is the protocol core. It owns the client's LockTable and
// FieldStore, tracks local focus, decides when to emit acquire_lock,
// release_lock, write and reset actions, and reconciles speculative local
// edits against authoritative echoes using matching tokens.
//
// Engine methods are safe for concurrent use, but the protocol itself is
// event-driven: each method call is one discrete transition.
type Engine struct {
	cfg       Config
	performer Performer
	logger    logger.Logger
	metrics   Metrics
	clk       clock.Clock

	mu             sync.Mutex
	self           types.ClientID
	readOnly       bool
	locks          *LockTable
	store          *FieldStore
	session        *editSession
	timers         map[types.FieldKey]*orphanTimer
	resetRequested map[types.FieldKey]bool
}

// NewEngine creates a sync engine that sends its outbound actions through
// performer.
func NewEngine(performer Performer, opts ...EngineOption) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoOpMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewStandardClock()
	}

	return &Engine{
		cfg:            cfg,
		performer:      performer,
		logger:         cfg.Logger.WithComponent("engine"),
		metrics:        cfg.Metrics,
		clk:            cfg.Clock,
		locks:          NewLockTable(),
		store:          NewFieldStore(),
		session:        newEditSession(),
		timers:         make(map[types.FieldKey]*orphanTimer),
		resetRequested: make(map[types.FieldKey]bool),
	}, nil
}

// Locks exposes the lock table for read-side rendering.
func (e *Engine) Locks() *LockTable { return e.locks }

// Fields exposes the field store for read-side rendering.
func (e *Engine) Fields() *FieldStore { return e.store }

// SetIdentity installs the stable per-connection client id assigned by the
// authoritative server. Lock ownership tests are meaningless before this is
// called, so dirty-field timers are resynchronized afterwards.
func (e *Engine) SetIdentity(id types.ClientID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.self = id
	e.logger = e.logger.WithClientID(id)
	for _, key := range e.store.DirtyKeys() {
		e.syncResetTimer(key)
	}
}

// Self returns the client id assigned by the server, if any yet.
func (e *Engine) Self() types.ClientID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.self
}

// SetReadOnly switches the freeze mode. While read-only, no outbound
// actions are emitted at all and local changes are rejected.
func (e *Engine) SetReadOnly(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readOnly = on
	if on {
		e.cancelAllTimers()
	} else {
		for _, key := range e.store.DirtyKeys() {
			e.syncResetTimer(key)
		}
	}
}

// ReadOnly reports whether the session is frozen.
func (e *Engine) ReadOnly() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readOnly
}

// Focus records local input focus on key and asks the authoritative server
// for its lock. The lock is not granted locally: ownership changes only
// when the server broadcasts the acquisition back, including to this
// client.
func (e *Engine) Focus(key types.FieldKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	e.session.focus(key)
	e.send(types.ActionAcquireLock, types.AcquireLockPayload{Lock: key.LockID()})
	return nil
}

// Blur clears local focus on key and releases its lock.
func (e *Engine) Blur(key types.FieldKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.blur(key)
	if e.readOnly {
		return ErrReadOnly
	}
	e.send(types.ActionReleaseLock, types.ReleaseLockPayload{Lock: key.LockID()})
	return nil
}

// Change applies a locally originated edit. The edit is accepted only if
// the field is not focused, or its lock is currently held by this client;
// the former case covers a change event racing a just-processed blur. An
// accepted edit mints a fresh token, stores the speculative value as dirty,
// and transmits it — unless the value is a syntactically incomplete numeric
// literal, which is held locally until completed.
func (e *Engine) Change(key types.FieldKey, raw string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	if e.session.has(key) && !e.locks.IsMine(key, e.self) {
		return ErrEditBlocked
	}

	token := e.cfg.TokenSource()
	e.store.SetLocal(key, raw, token)
	e.metrics.IncrLocalEdit(key)
	e.metrics.SetDirtyFields(e.store.DirtyCount())

	fa := actionsFor(key)
	if !fa.transmittable(raw) {
		e.metrics.IncrSuppressedWrite(key)
		e.logger.Debugw("write withheld, incomplete value", "key", key, "value", raw)
	} else {
		e.send(fa.writeAction, fa.writePayload(key, raw, token))
	}

	e.syncResetTimer(key)
	return nil
}

// State derives the protocol state of key from (dirty, holder, focus).
func (e *Engine) State(key types.FieldKey) types.FieldState {
	e.mu.Lock()
	defer e.mu.Unlock()

	dirty := e.store.Dirty(key) != types.None
	mine := e.locks.IsMine(key, e.self)
	focused := e.session.has(key)

	switch {
	case dirty && !mine:
		return types.StateOrphaned
	case dirty:
		return types.StatePendingConfirm
	case focused && mine:
		return types.StateEditingMine
	case focused:
		return types.StateEditingBlocked
	default:
		return types.StateRemote
	}
}

// Editable reports whether the UI should accept input on key: never in
// read-only mode, and never while another client holds the lock.
func (e *Engine) Editable(key types.FieldKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return false
	}
	holder, held := e.locks.Holder(key)
	return !held || holder == e.self
}

// Value returns the currently displayed value for key: authoritative, or
// locally speculative while an edit is pending.
func (e *Engine) Value(key types.FieldKey) string {
	return e.store.Get(key).Value
}

// ApplyLockAcquire replays an authoritative lock acquisition broadcast.
// Last writer wins; the client never arbitrates.
func (e *Engine) ApplyLockAcquire(lock types.LockID, holder types.ClientID) error {
	key, err := types.ParseLockID(lock)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.locks.Acquire(key, holder)
	e.syncResetTimer(key)
	return nil
}

// ApplyLockRelease replays an authoritative lock release broadcast.
func (e *Engine) ApplyLockRelease(lock types.LockID) error {
	key, err := types.ParseLockID(lock)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.locks.Release(key)
	e.syncResetTimer(key)
	return nil
}

// ApplyClean applies an authoritative confirmation for key. A token
// mismatch means the echo belongs to a superseded edit; it is counted and
// dropped without touching the newer pending value.
func (e *Engine) ApplyClean(key types.FieldKey, value string, token types.Token) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store.ApplyClean(key, value, token) {
		e.metrics.IncrCleanConfirm(key)
	} else {
		e.metrics.IncrStaleEcho(key)
		e.logger.Debugw("ignored stale echo", "key", key, "token", token)
	}
	e.metrics.SetDirtyFields(e.store.DirtyCount())
	e.syncResetTimer(key)
}

// ApplyReset applies an authoritative reset for key: the value is installed
// unconditionally and any pending edit is discarded.
func (e *Engine) ApplyReset(key types.FieldKey, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.ApplyReset(key, value)
	e.metrics.SetDirtyFields(e.store.DirtyCount())
	e.syncResetTimer(key)
}

// LoadResults replaces all scored-field records with a bulk load.
func (e *Engine) LoadResults(entries []types.ResultEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ReplaceScores(entries)
	e.resyncTimers()
}

// LoadComments replaces all comment records with a bulk load.
func (e *Engine) LoadComments(entries []types.CommentEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ReplaceComments(entries)
	e.resyncTimers()
}

// DropUser removes every field and lock belonging to a deleted user.
func (e *Engine) DropUser(user types.UserID) {
	e.dropWhere(func(key types.FieldKey) bool { return key.User == user })
}

// DropCriterion removes every field and lock belonging to a deleted
// criterion.
func (e *Engine) DropCriterion(criterion types.CriterionID) {
	e.dropWhere(func(key types.FieldKey) bool { return key.Criterion == criterion })
}

// Close disarms every pending timer. The engine must not be used after
// Close.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelAllTimers()
}

func (e *Engine) dropWhere(match func(types.FieldKey) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.DropWhere(match)
	e.locks.DropWhere(match)
	for key, t := range e.timers {
		if match(key) {
			close(t.cancel)
			delete(e.timers, key)
			delete(e.resetRequested, key)
		}
	}
	e.metrics.SetDirtyFields(e.store.DirtyCount())
}

// resyncTimers re-evaluates the timer precondition for every armed timer
// and every dirty field after a bulk change. Callers must hold e.mu.
func (e *Engine) resyncTimers() {
	for key := range e.timers {
		e.syncResetTimer(key)
	}
	for _, key := range e.store.DirtyKeys() {
		e.syncResetTimer(key)
	}
	e.metrics.SetDirtyFields(e.store.DirtyCount())
}

// send emits one fire-and-forget action. Failures are logged, not
// propagated: the protocol self-heals through re-synchronization.
func (e *Engine) send(action string, payload any) {
	if e.readOnly {
		return
	}
	if err := e.performer.Perform(action, payload); err != nil {
		e.logger.Warnw("perform failed", "action", action, "error", err)
		return
	}
	e.metrics.IncrWrite(action)
}
