package roster

import (
	"testing"

	"github.com/kselvad/scoregrid/testutil"
	"github.com/kselvad/scoregrid/types"
)

func TestSplitName(t *testing.T) {
	g, s := SplitName("Design / Originality")
	testutil.AssertEqual(t, "Design", g)
	testutil.AssertEqual(t, "Originality", s)

	// No separator: the name is its own group and its own label.
	g, s = SplitName("Code")
	testutil.AssertEqual(t, "Code", g)
	testutil.AssertEqual(t, "Code", s)

	// Only the spaced form separates; a bare slash stays in the name.
	g, _ = SplitName("A/B")
	testutil.AssertEqual(t, "A/B", g)
}

func TestGroupsFoldInFirstAppearanceOrder(t *testing.T) {
	b, _ := newTestBoard(t)
	b.LoadCriteria([]types.Criterion{
		{ID: "c1", Name: "Group 1 / Sub 1", Pos: 0},
		{ID: "c2", Name: "Group 1 / Sub 2", Pos: 1},
		{ID: "c3", Name: "Group 2 / Sub 1", Pos: 2},
	})

	groups := b.Groups()
	testutil.AssertEqual(t, 2, len(groups))

	testutil.AssertEqual(t, "Group 1", groups[0].Name)
	testutil.AssertEqual(t, 0, groups[0].Color)
	testutil.AssertEqual(t, 2, len(groups[0].Criteria))

	testutil.AssertEqual(t, "Group 2", groups[1].Name)
	testutil.AssertEqual(t, 1, groups[1].Color)
	testutil.AssertEqual(t, 1, len(groups[1].Criteria))
}

func TestGroupsInterleavedCriteriaShareColor(t *testing.T) {
	b, _ := newTestBoard(t)
	b.LoadCriteria([]types.Criterion{
		{ID: "c1", Name: "A / one", Pos: 0},
		{ID: "c2", Name: "B / one", Pos: 1},
		{ID: "c3", Name: "A / two", Pos: 2},
	})

	groups := b.Groups()
	testutil.AssertEqual(t, 2, len(groups))
	testutil.AssertEqual(t, "A", groups[0].Name)
	testutil.AssertEqual(t, 2, len(groups[0].Criteria))
	testutil.AssertEqual(t, "A / two", groups[0].Criteria[1].Name)
	testutil.AssertEqual(t, "B", groups[1].Name)
	testutil.AssertEqual(t, 1, groups[1].Color)
}

func TestGroupsEmptyBoard(t *testing.T) {
	b, _ := newTestBoard(t)
	testutil.AssertEqual(t, 0, len(b.Groups()))
}
