package grid

import (
	"github.com/kselvad/scoregrid/clock"
	"github.com/kselvad/scoregrid/types"
)

// orphanTimer is the cancellable reset timer armed while a field is dirty
// but its lock is not held by this client.
type orphanTimer struct {
	timer  clock.Timer
	cancel chan struct{}
}

// syncResetTimer arms or disarms the reset timer for key so that exactly
// one timer runs iff the field is dirty, the lock is not held by this
// client, and a reset has not already been requested. Callers must hold
// e.mu.
func (e *Engine) syncResetTimer(key types.FieldKey) {
	dirty := e.store.Dirty(key) != types.None
	mine := e.locks.IsMine(key, e.self)

	// A clean field or a reacquired lock re-enables future resets.
	if !dirty || mine {
		delete(e.resetRequested, key)
	}

	should := dirty && !mine && !e.readOnly && !e.resetRequested[key]
	armed, isArmed := e.timers[key]

	switch {
	case should && !isArmed:
		t := &orphanTimer{
			timer:  e.clk.NewTimer(e.cfg.ResetTimeout),
			cancel: make(chan struct{}),
		}
		e.timers[key] = t
		go e.awaitReset(key, t)
		e.logger.Debugw("reset timer armed", "key", key, "timeout", e.cfg.ResetTimeout)

	case !should && isArmed:
		close(armed.cancel)
		delete(e.timers, key)
		e.logger.Debugw("reset timer disarmed", "key", key)
	}
}

// awaitReset waits for the timer to expire or be canceled.
func (e *Engine) awaitReset(key types.FieldKey, t *orphanTimer) {
	select {
	case <-t.timer.Chan():
		e.onResetTimeout(key, t)
	case <-t.cancel:
		t.timer.Stop()
	}
}

// onResetTimeout fires once per armed timer. It re-checks the precondition
// under the engine lock: a disarm or re-arm that raced the expiry wins.
func (e *Engine) onResetTimeout(key types.FieldKey, t *orphanTimer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timers[key] != t {
		return
	}
	delete(e.timers, key)

	if e.store.Dirty(key) == types.None || e.locks.IsMine(key, e.self) || e.readOnly {
		return
	}

	e.resetRequested[key] = true
	fa := actionsFor(key)
	e.send(fa.resetAction, fa.resetPayload(key))
	e.metrics.IncrOrphanReset(key)
	e.logger.Infow("requested reset of abandoned edit", "key", key)
}

// cancelAllTimers disarms every armed timer. Callers must hold e.mu.
func (e *Engine) cancelAllTimers() {
	for key, t := range e.timers {
		close(t.cancel)
		delete(e.timers, key)
	}
}
