package grid

import (
	"testing"

	"github.com/kselvad/scoregrid/testutil"
	"github.com/kselvad/scoregrid/types"
)

var (
	scoreKey   = types.ScoreKey("user-1", "crit-1")
	commentKey = types.CommentKey("user-1")
)

func TestNewEngineRejectsBadConfig(t *testing.T) {
	_, err := NewEngine(&mockPerformer{}, WithResetTimeout(0))
	testutil.AssertErrorIs(t, err, ErrInvalidResetTimeout)
}

func TestFocusSendsAcquireLock(t *testing.T) {
	e, perf, _ := newTestEngine(t)

	testutil.AssertNoError(t, e.Focus(scoreKey))

	last, ok := perf.last()
	testutil.RequireTrue(t, ok)
	testutil.AssertEqual(t, types.ActionAcquireLock, last.action)
	testutil.AssertEqual(t, types.AcquireLockPayload{Lock: "user-1:crit-1"}, last.payload)

	// The lock is not granted locally; only the broadcast grants it.
	testutil.AssertEqual(t, types.StateEditingBlocked, e.State(scoreKey))
}

func TestFocusGrantedByBroadcast(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetIdentity("me")

	testutil.AssertNoError(t, e.Focus(scoreKey))
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "me"))

	testutil.AssertEqual(t, types.StateEditingMine, e.State(scoreKey))
}

func TestBlurReleasesLock(t *testing.T) {
	e, perf, _ := newTestEngine(t)

	testutil.AssertNoError(t, e.Focus(scoreKey))
	testutil.AssertNoError(t, e.Blur(scoreKey))

	last, ok := perf.last()
	testutil.RequireTrue(t, ok)
	testutil.AssertEqual(t, types.ActionReleaseLock, last.action)
	testutil.AssertEqual(t, types.ReleaseLockPayload{Lock: "user-1:crit-1"}, last.payload)
	testutil.AssertEqual(t, types.StateRemote, e.State(scoreKey))
}

func TestChangeBlockedWhenLockHeldElsewhere(t *testing.T) {
	e, perf, _ := newTestEngine(t)
	e.SetIdentity("me")

	testutil.AssertNoError(t, e.Focus(scoreKey))
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "rival"))
	perf.reset()

	testutil.AssertErrorIs(t, e.Change(scoreKey, "5"), ErrEditBlocked)
	testutil.AssertEmpty(t, perf.all())
	testutil.AssertEqual(t, types.StateEditingBlocked, e.State(scoreKey))
	testutil.AssertFalse(t, e.Editable(scoreKey))
}

func TestChangeAcceptedWithoutFocus(t *testing.T) {
	// A change event may race a just-processed blur: the field is no
	// longer focused, but the edit is still locally originated and valid.
	e, perf, _ := newTestEngine(t)
	e.SetIdentity("me")

	testutil.AssertNoError(t, e.Change(scoreKey, "5"))
	testutil.AssertEqual(t, 1, perf.count(types.ActionWriteResult))
}

func TestChangeTransmitsTokenedWrite(t *testing.T) {
	e, perf, _ := newTestEngine(t)
	e.SetIdentity("me")

	testutil.AssertNoError(t, e.Focus(scoreKey))
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "me"))
	testutil.AssertNoError(t, e.Change(scoreKey, "7.5"))

	last, ok := perf.last()
	testutil.RequireTrue(t, ok)
	testutil.AssertEqual(t, types.ActionWriteResult, last.action)
	testutil.AssertEqual(t, types.WriteResultPayload{
		User:      "user-1",
		Criterion: "crit-1",
		Value:     "7.5",
		Token:     "tok-1",
	}, last.payload)

	testutil.AssertEqual(t, "7.5", e.Value(scoreKey))
	testutil.AssertEqual(t, types.StatePendingConfirm, e.State(scoreKey))
}

func TestTrailingDecimalPointIsWithheld(t *testing.T) {
	e, perf, _ := newTestEngine(t)
	e.SetIdentity("me")
	testutil.AssertNoError(t, e.Focus(scoreKey))
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "me"))
	perf.reset()

	// "8." is applied locally but never reaches the wire.
	testutil.AssertNoError(t, e.Change(scoreKey, "8."))
	testutil.AssertEqual(t, 0, perf.count(types.ActionWriteResult))
	testutil.AssertEqual(t, "8.", e.Value(scoreKey))
	testutil.AssertEqual(t, types.StatePendingConfirm, e.State(scoreKey))

	// Completing the literal transmits it under the newest token.
	testutil.AssertNoError(t, e.Change(scoreKey, "8.5"))
	testutil.AssertEqual(t, 1, perf.count(types.ActionWriteResult))
	last, _ := perf.last()
	testutil.AssertEqual(t, types.WriteResultPayload{
		User:      "user-1",
		Criterion: "crit-1",
		Value:     "8.5",
		Token:     "tok-2",
	}, last.payload)
}

func TestCommentChangeAlwaysTransmitted(t *testing.T) {
	e, perf, _ := newTestEngine(t)
	e.SetIdentity("me")

	testutil.AssertNoError(t, e.Change(commentKey, "promising approach."))
	last, ok := perf.last()
	testutil.RequireTrue(t, ok)
	testutil.AssertEqual(t, types.ActionWriteComment, last.action)
	testutil.AssertEqual(t, types.WriteCommentPayload{
		User:  "user-1",
		Value: "promising approach.",
		Token: "tok-1",
	}, last.payload)
}

func TestCleanEchoConfirmsMatchingToken(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetIdentity("me")
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "me"))

	testutil.AssertNoError(t, e.Change(scoreKey, "8"))
	e.ApplyClean(scoreKey, "8", "tok-1")

	testutil.AssertEqual(t, "8", e.Value(scoreKey))
	testutil.AssertEqual(t, types.StateRemote, e.State(scoreKey))
}

func TestStaleEchoIsIgnored(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetIdentity("me")
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "me"))

	// Two rapid edits; the echo of the first must not clobber the second.
	testutil.AssertNoError(t, e.Change(scoreKey, "8"))
	testutil.AssertNoError(t, e.Change(scoreKey, "9"))

	e.ApplyClean(scoreKey, "8", "tok-1")
	testutil.AssertEqual(t, "9", e.Value(scoreKey))
	testutil.AssertEqual(t, types.StatePendingConfirm, e.State(scoreKey))

	e.ApplyClean(scoreKey, "9", "tok-2")
	testutil.AssertEqual(t, "9", e.Value(scoreKey))
	testutil.AssertEqual(t, types.StateRemote, e.State(scoreKey))
}

func TestCleanAppliesWhenNothingPending(t *testing.T) {
	// A clean from another client's write lands on a field with no pending
	// edit: it is simply the newest remote value.
	e, _, _ := newTestEngine(t)
	e.SetIdentity("me")

	e.ApplyClean(scoreKey, "4", "someone-elses-token")
	testutil.AssertEqual(t, "4", e.Value(scoreKey))
	testutil.AssertEqual(t, types.StateRemote, e.State(scoreKey))
}

func TestResetDiscardsPendingEdit(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetIdentity("me")
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "me"))
	testutil.AssertNoError(t, e.Change(scoreKey, "9"))

	e.ApplyReset(scoreKey, "3")
	testutil.AssertEqual(t, "3", e.Value(scoreKey))
	testutil.AssertEqual(t, types.StateRemote, e.State(scoreKey))
}

func TestLostLockOrphansPendingEdit(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetIdentity("me")
	testutil.AssertNoError(t, e.Focus(scoreKey))
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "me"))
	testutil.AssertNoError(t, e.Change(scoreKey, "9"))

	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "rival"))
	testutil.AssertEqual(t, types.StateOrphaned, e.State(scoreKey))
}

func TestOrphanTimerRequestsResetOnce(t *testing.T) {
	e, perf, clk := newTestEngine(t)
	e.SetIdentity("me")

	// Dirty without holding the lock arms the reset timer.
	testutil.AssertNoError(t, e.Change(scoreKey, "9"))
	testutil.AssertEqual(t, 1, clk.timerCount())
	testutil.AssertEqual(t, DefaultResetTimeout, clk.timer(0).d)

	clk.timer(0).fire()
	waitFor(t, func() bool { return perf.count(types.ActionResetResult) == 1 }, "reset request")

	last, _ := perf.last()
	testutil.AssertEqual(t, types.ResetResultPayload{User: "user-1", Criterion: "crit-1"}, last.payload)

	// Still dirty, still not ours, but the reset was already requested:
	// nothing may re-arm until the field changes state.
	testutil.AssertNoError(t, e.ApplyLockRelease(scoreKey.LockID()))
	neverHappens(t, func() bool { return clk.timerCount() > 1 }, "second timer armed")

	// The authoritative reset lands, the field is clean, and a fresh edit
	// may arm a fresh timer.
	e.ApplyReset(scoreKey, "0")
	testutil.AssertEqual(t, types.StateRemote, e.State(scoreKey))
	testutil.AssertNoError(t, e.Change(scoreKey, "2"))
	testutil.AssertEqual(t, 2, clk.timerCount())
}

func TestOrphanTimerCancelledOnReacquire(t *testing.T) {
	e, perf, clk := newTestEngine(t)
	e.SetIdentity("me")

	testutil.AssertNoError(t, e.Change(scoreKey, "9"))
	testutil.AssertEqual(t, 1, clk.timerCount())

	// Reacquiring the lock disarms the timer; a late expiry is ignored.
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "me"))
	clk.timer(0).fire()
	neverHappens(t, func() bool { return perf.count(types.ActionResetResult) > 0 }, "reset after reacquire")
}

func TestOrphanTimerCancelledByConfirmation(t *testing.T) {
	e, perf, clk := newTestEngine(t)
	e.SetIdentity("me")

	testutil.AssertNoError(t, e.Change(scoreKey, "9"))
	e.ApplyClean(scoreKey, "9", "tok-1")

	clk.timer(0).fire()
	neverHappens(t, func() bool { return perf.count(types.ActionResetResult) > 0 }, "reset after confirm")
}

func TestCommentOrphanResetUsesCommentAction(t *testing.T) {
	e, perf, clk := newTestEngine(t)
	e.SetIdentity("me")

	testutil.AssertNoError(t, e.Change(commentKey, "half-finished thou"))
	clk.timer(0).fire()
	waitFor(t, func() bool { return perf.count(types.ActionResetComment) == 1 }, "comment reset request")

	last, _ := perf.last()
	testutil.AssertEqual(t, types.ResetCommentPayload{User: "user-1"}, last.payload)
}

func TestReadOnlyFreezesEverything(t *testing.T) {
	e, perf, clk := newTestEngine(t)
	e.SetIdentity("me")
	testutil.AssertNoError(t, e.Change(scoreKey, "9"))
	testutil.AssertEqual(t, 1, clk.timerCount())
	perf.reset()

	e.SetReadOnly(true)

	testutil.AssertErrorIs(t, e.Focus(scoreKey), ErrReadOnly)
	testutil.AssertErrorIs(t, e.Change(scoreKey, "5"), ErrReadOnly)
	testutil.AssertErrorIs(t, e.Blur(scoreKey), ErrReadOnly)
	testutil.AssertFalse(t, e.Editable(scoreKey))

	// Armed timers are cancelled; a late expiry emits nothing.
	clk.timer(0).fire()
	neverHappens(t, func() bool { return len(perf.all()) > 0 }, "outbound action while read-only")

	// Unfreezing re-arms the timer for the still-dirty field.
	e.SetReadOnly(false)
	testutil.AssertEqual(t, 2, clk.timerCount())
}

func TestLoadResultsReplacesScoresOnly(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetIdentity("me")

	e.LoadComments([]types.CommentEntry{{User: "user-1", Value: "keep me"}})
	e.LoadResults([]types.ResultEntry{
		{User: "user-1", Criterion: "crit-1", Value: "3"},
		{User: "user-2", Criterion: "crit-1", Value: "4.5"},
	})

	testutil.AssertEqual(t, "3", e.Value(scoreKey))
	testutil.AssertEqual(t, "4.5", e.Value(types.ScoreKey("user-2", "crit-1")))
	testutil.AssertEqual(t, "keep me", e.Value(commentKey))

	e.LoadResults([]types.ResultEntry{{User: "user-2", Criterion: "crit-1", Value: "5"}})
	testutil.AssertEqual(t, "", e.Value(scoreKey))
	testutil.AssertEqual(t, "keep me", e.Value(commentKey))
}

func TestDropCriterionPurgesFieldsLocksTimers(t *testing.T) {
	e, perf, clk := newTestEngine(t)
	e.SetIdentity("me")

	testutil.AssertNoError(t, e.Change(scoreKey, "9")) // arms a timer
	testutil.AssertNoError(t, e.ApplyLockAcquire(scoreKey.LockID(), "rival"))

	e.DropCriterion("crit-1")

	testutil.AssertEqual(t, "", e.Value(scoreKey))
	testutil.AssertEqual(t, types.StateRemote, e.State(scoreKey))
	_, held := e.Locks().Holder(scoreKey)
	testutil.AssertFalse(t, held)

	perf.reset()
	clk.timer(0).fire()
	neverHappens(t, func() bool { return len(perf.all()) > 0 }, "reset for dropped field")
}

func TestDropUserPurgesCommentToo(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetIdentity("me")
	testutil.AssertNoError(t, e.Change(scoreKey, "9"))
	testutil.AssertNoError(t, e.Change(commentKey, "gone"))

	e.DropUser("user-1")
	testutil.AssertEqual(t, "", e.Value(scoreKey))
	testutil.AssertEqual(t, "", e.Value(commentKey))
	testutil.AssertEqual(t, 0, e.Fields().DirtyCount())
}

func TestPerformFailureIsSwallowed(t *testing.T) {
	perf := &mockPerformer{err: errSendFailed}
	e, err := NewEngine(perf, WithClock(newMockClock()), WithTokenSource(seqTokens()))
	testutil.RequireNoError(t, err)
	defer e.Close()
	e.SetIdentity("me")

	// Fire-and-forget: a transport hiccup neither errors nor loses the
	// local speculative value.
	testutil.AssertNoError(t, e.Change(scoreKey, "6"))
	testutil.AssertEqual(t, "6", e.Value(scoreKey))
	testutil.AssertEqual(t, types.StatePendingConfirm, e.State(scoreKey))
}
