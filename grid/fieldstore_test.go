package grid

import (
	"testing"

	"github.com/kselvad/scoregrid/testutil"
	"github.com/kselvad/scoregrid/types"
)

func TestFieldStoreGetAbsentReadsClean(t *testing.T) {
	s := NewFieldStore()
	r := s.Get(scoreKey)
	testutil.AssertEqual(t, scoreKey, r.Key)
	testutil.AssertEqual(t, "", r.Value)
	testutil.AssertFalse(t, r.IsDirty())
}

func TestFieldStoreSetLocalMarksDirty(t *testing.T) {
	s := NewFieldStore()
	s.SetLocal(scoreKey, "7", "tok-a")

	testutil.AssertEqual(t, types.Token("tok-a"), s.Dirty(scoreKey))
	testutil.AssertEqual(t, "7", s.Get(scoreKey).Value)
	testutil.AssertEqual(t, 1, s.DirtyCount())
	testutil.AssertEqual(t, []types.FieldKey{scoreKey}, s.DirtyKeys())
}

func TestFieldStoreApplyCleanTokenDiscipline(t *testing.T) {
	s := NewFieldStore()
	s.SetLocal(scoreKey, "7", "tok-a")
	s.SetLocal(scoreKey, "8", "tok-b")

	// Echo of the superseded edit: rejected, nothing changes.
	testutil.AssertFalse(t, s.ApplyClean(scoreKey, "7", "tok-a"))
	testutil.AssertEqual(t, "8", s.Get(scoreKey).Value)
	testutil.AssertEqual(t, types.Token("tok-b"), s.Dirty(scoreKey))

	// Echo of the current edit: accepted and cleared.
	testutil.AssertTrue(t, s.ApplyClean(scoreKey, "8", "tok-b"))
	testutil.AssertEqual(t, "8", s.Get(scoreKey).Value)
	testutil.AssertEqual(t, types.None, s.Dirty(scoreKey))
	testutil.AssertEqual(t, 0, s.DirtyCount())

	// Clean on a clean field is a plain remote update, any token.
	testutil.AssertTrue(t, s.ApplyClean(scoreKey, "3", "tok-z"))
	testutil.AssertEqual(t, "3", s.Get(scoreKey).Value)
}

func TestFieldStoreApplyResetIsUnconditional(t *testing.T) {
	s := NewFieldStore()
	s.SetLocal(scoreKey, "9", "tok-a")

	s.ApplyReset(scoreKey, "0")
	testutil.AssertEqual(t, "0", s.Get(scoreKey).Value)
	testutil.AssertEqual(t, types.None, s.Dirty(scoreKey))
}

func TestFieldStoreReplacePartitions(t *testing.T) {
	s := NewFieldStore()
	s.SetLocal(scoreKey, "1", "tok-a")
	s.SetLocal(commentKey, "note", "tok-b")

	s.ReplaceScores([]types.ResultEntry{{User: "user-2", Criterion: "crit-1", Value: "5"}})

	// Old score gone, comment untouched.
	testutil.AssertEqual(t, "", s.Get(scoreKey).Value)
	testutil.AssertEqual(t, "note", s.Get(commentKey).Value)
	testutil.AssertEqual(t, "5", s.Get(types.ScoreKey("user-2", "crit-1")).Value)

	s.ReplaceComments([]types.CommentEntry{{User: "user-3", Value: "hi"}})
	testutil.AssertEqual(t, "", s.Get(commentKey).Value)
	testutil.AssertEqual(t, "hi", s.Get(types.CommentKey("user-3")).Value)
	testutil.AssertEqual(t, "5", s.Get(types.ScoreKey("user-2", "crit-1")).Value)
}

func TestFieldStoreDropWhere(t *testing.T) {
	s := NewFieldStore()
	s.SetLocal(scoreKey, "1", "tok-a")
	s.SetLocal(types.ScoreKey("user-2", "crit-1"), "2", "tok-b")

	s.DropWhere(func(key types.FieldKey) bool { return key.User == "user-1" })
	testutil.AssertEqual(t, "", s.Get(scoreKey).Value)
	testutil.AssertEqual(t, "2", s.Get(types.ScoreKey("user-2", "crit-1")).Value)
}
