package server

import (
	"testing"

	"github.com/kselvad/scoregrid/testutil"
	"github.com/kselvad/scoregrid/types"
)

func seededState() *boardState {
	s := newBoardState()
	s.criteria = []types.Criterion{
		{ID: "c1", Name: "Design", Limit: 10, Multiplier: 1, Pos: 0},
		{ID: "c2", Name: "Code", Limit: 5, Multiplier: 2, Pos: 1},
	}
	s.judges = []types.Judge{{ID: "j1", Name: "Alice"}}
	s.users = []types.User{
		{ID: "u1", Name: "Team One"},
		{ID: "u2", Name: "Team Two", NoSolution: true},
	}
	return s
}

func TestSetResultClampsToCriterionLimit(t *testing.T) {
	s := seededState()

	v, err := s.setResult("u1", "c1", "12")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, "10", v)

	v, err = s.setResult("u1", "c1", "-3")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, "0", v)

	v, err = s.setResult("u1", "c1", "7.50")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, "7.5", v, "value is canonicalized")
}

func TestSetResultRejectsMalformed(t *testing.T) {
	s := seededState()

	_, err := s.setResult("u1", "c1", "8.")
	testutil.AssertError(t, err)

	_, err = s.setResult("u1", "nope", "5")
	testutil.AssertError(t, err)
}

func TestValueDefaults(t *testing.T) {
	s := seededState()
	testutil.AssertEqual(t, "0", s.value(types.ScoreKey("u1", "c1")))
	testutil.AssertEqual(t, "", s.value(types.CommentKey("u1")))

	s.setComment("u1", "neat")
	testutil.AssertEqual(t, "neat", s.value(types.CommentKey("u1")))
}

func TestZeroScoresMatchesSubset(t *testing.T) {
	s := seededState()
	s.setResult("u1", "c1", "8")
	s.setResult("u2", "c1", "6")

	touched := s.zeroScores(func(u types.User) bool { return u.NoSolution })

	testutil.AssertEqual(t, 2, len(touched), "u2 across both criteria")
	testutil.AssertEqual(t, "8", s.value(types.ScoreKey("u1", "c1")))
	testutil.AssertEqual(t, "0", s.value(types.ScoreKey("u2", "c1")))
	testutil.AssertEqual(t, "0", s.value(types.ScoreKey("u2", "c2")))
}

func TestLockArbitration(t *testing.T) {
	s := seededState()
	lock := types.ScoreKey("u1", "c1").LockID()

	s.acquireLock(lock, "alice")
	s.acquireLock(lock, "bob")
	testutil.AssertEqual(t, types.ClientID("bob"), s.locks[lock])

	// Only the holder may release.
	testutil.AssertFalse(t, s.releaseLock(lock, "alice"))
	testutil.AssertTrue(t, s.releaseLock(lock, "bob"))
	testutil.AssertEqual(t, 0, len(s.locks))
}

func TestReleaseAllHeldBy(t *testing.T) {
	s := seededState()
	s.acquireLock("u1:c1", "alice")
	s.acquireLock("u1:c2", "alice")
	s.acquireLock("u2:c1", "bob")

	released := s.releaseAllHeldBy("alice")
	testutil.AssertEqual(t, 2, len(released))
	testutil.AssertEqual(t, 1, len(s.locks))
}

func TestCriterionLifecycle(t *testing.T) {
	s := seededState()

	c := s.addCriterion("Style", 3)
	testutil.AssertEqual(t, 2, c.Pos)
	testutil.AssertEqual(t, 1.0, c.Multiplier)

	limit := 4.0
	testutil.AssertTrue(t, s.updateCriterion(c.ID, types.CriterionParams{Limit: &limit}))
	testutil.AssertEqual(t, 4.0, s.criterion(c.ID).Limit)
	testutil.AssertFalse(t, s.updateCriterion("nope", types.CriterionParams{}))

	s.setResult("u1", c.ID, "2")
	testutil.AssertTrue(t, s.deleteCriterion(c.ID))
	testutil.AssertNil(t, s.criterion(c.ID))
	testutil.AssertEqual(t, "0", s.value(types.ScoreKey("u1", c.ID)), "scores of the deleted column are gone")
	testutil.AssertFalse(t, s.deleteCriterion(c.ID))
}

func TestMoveCriterionRenumbersDensely(t *testing.T) {
	s := seededState()
	s.addCriterion("Style", 3) // c at pos 2

	testutil.AssertTrue(t, s.moveCriterion("c2", 0))

	ids := make([]types.CriterionID, len(s.criteria))
	for i, c := range s.criteria {
		ids[i] = c.ID
		testutil.AssertEqual(t, i, c.Pos)
	}
	testutil.AssertEqual(t, types.CriterionID("c2"), ids[0])
	testutil.AssertEqual(t, types.CriterionID("c1"), ids[1])

	// A move into the middle lands exactly at the requested slot.
	styleID := s.criteria[2].ID
	testutil.AssertTrue(t, s.moveCriterion(styleID, 1))
	testutil.AssertEqual(t, styleID, s.criteria[1].ID)
	testutil.AssertEqual(t, types.CriterionID("c1"), s.criteria[2].ID)
	for i, c := range s.criteria {
		testutil.AssertEqual(t, i, c.Pos)
	}
}

func TestSetMultiplier(t *testing.T) {
	s := seededState()
	testutil.AssertNoError(t, s.setMultiplier("c1", "2.5"))
	testutil.AssertEqual(t, 2.5, s.criterion("c1").Multiplier)
	testutil.AssertError(t, s.setMultiplier("c1", "2."))
	testutil.AssertError(t, s.setMultiplier("nope", "2"))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := seededState()
	s.setResult("u1", "c1", "8")
	s.setComment("u2", "no show")
	s.acquireLock("u1:c1", "alice")
	s.finished = true

	data, err := s.snapshot()
	testutil.RequireNoError(t, err)

	restored := newBoardState()
	testutil.RequireNoError(t, restored.restore(data))

	testutil.AssertEqual(t, "8", restored.value(types.ScoreKey("u1", "c1")))
	testutil.AssertEqual(t, "no show", restored.value(types.CommentKey("u2")))
	testutil.AssertEqual(t, 2, len(restored.criteria))
	testutil.AssertEqual(t, 2, len(restored.users))
	testutil.AssertTrue(t, restored.finished)

	// Locks are connection-scoped and never survive a restart.
	testutil.AssertEqual(t, 0, len(restored.locks))
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	s := newBoardState()
	testutil.AssertError(t, s.restore([]byte("{not json")))
}
