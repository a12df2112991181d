package roster

import "strings"

// groupSeparator splits a criterion name into its group and subcriterion
// parts: "Design / Originality" belongs to the "Design" group.
const groupSeparator = " / "

// Group is one top-level criterion group as presented by the grid header.
// Color is a stable palette index shared by every criterion in the group:
// groups are numbered in first-appearance order of the underlying criteria.
type Group struct {
	Name     string
	Color    int
	Criteria []Criterion
}

// SplitName returns the group and subcriterion parts of a criterion name.
// A name without a separator forms a group of its own and keeps the full
// name as its subcriterion label.
func SplitName(name string) (group, sub string) {
	if g, s, ok := strings.Cut(name, groupSeparator); ok {
		return g, s
	}
	return name, name
}

// Groups folds the ordered criteria into their top-level groups. Sibling
// counts and colors follow first appearance, so a refactor of the sync
// protocol must leave this shape untouched.
func (b *Board) Groups() []Group {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var groups []Group
	index := make(map[string]int)
	for _, c := range b.criteria {
		name, _ := SplitName(c.Name)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name, Color: i})
		}
		groups[i].Criteria = append(groups[i].Criteria, *c)
	}
	return groups
}
