package roster

import (
	"sort"
	"strings"

	"github.com/kselvad/scoregrid/grid"
	"github.com/kselvad/scoregrid/types"
)

// LoadCriteria replaces the whole criteria sequence with a bulk load,
// ordered by position.
func (b *Board) LoadCriteria(entries []types.Criterion) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.criteria = make([]*Criterion, 0, len(entries))
	for _, e := range entries {
		b.criteria = append(b.criteria, fromWire(e))
	}
	b.sortCriteria()
}

// ApplyCriterionAdd inserts a broadcast criterion, preserving position
// ordering.
func (b *Board) ApplyCriterionAdd(entry types.Criterion) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.criteria = append(b.criteria, fromWire(entry))
	b.sortCriteria()
}

// ApplyCriterionDelete removes a criterion by identity.
func (b *Board) ApplyCriterionDelete(id types.CriterionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.criteria {
		if c.ID == id {
			b.criteria = append(b.criteria[:i], b.criteria[i+1:]...)
			return
		}
	}
}

// ApplyCriterionClean applies an authoritative attribute confirmation.
// The patch lands and the dirty token clears iff the echoed token matches
// the entry's pending token, or nothing is pending — the same rule the
// field store applies to values. A mismatch is a stale echo and is dropped.
func (b *Board) ApplyCriterionClean(p types.CriterionCleanPayload) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.find(p.ID)
	if c == nil {
		return false
	}
	if c.Dirty != types.None && c.Dirty != p.Token {
		b.logger.Debugw("ignored stale criterion echo", "id", p.ID, "token", p.Token)
		return false
	}
	applyParams(c, p.Params)
	c.Dirty = types.None
	b.sortCriteria()
	return true
}

// UpdateCriterion originates a local attribute edit: the patch is applied
// speculatively under a fresh token and sent to the authoritative server.
// A frozen board rejects the edit before the patch lands locally.
func (b *Board) UpdateCriterion(id types.CriterionID, params types.CriterionParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readOnly {
		return grid.ErrReadOnly
	}
	c := b.find(id)
	if c == nil {
		return ErrCriterionNotFound
	}
	token := b.tokens()
	applyParams(c, params)
	c.Dirty = token
	b.sortCriteria()
	return b.send(types.ActionUpdateCriterion, types.UpdateCriterionPayload{
		ID:     id,
		Params: params,
		Token:  token,
	})
}

// AddCriterion asks the server to create a criterion. The entry appears
// locally only when the criteria/add broadcast comes back.
func (b *Board) AddCriterion(name string, limit float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send(types.ActionAddCriterion, types.AddCriterionPayload{Name: name, Limit: limit})
}

// DeleteCriterion asks the server to delete a criterion.
func (b *Board) DeleteCriterion(id types.CriterionID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send(types.ActionDeleteCriterion, types.DeleteCriterionPayload{ID: id})
}

// MoveCriterion asks the server to reorder a criterion to pos.
func (b *Board) MoveCriterion(id types.CriterionID, pos int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send(types.ActionDragDrop, types.DragDropPayload{ID: id, Pos: pos})
}

// SetMultiplier originates a local edit of a criterion's result multiplier.
// As with scores, a value ending in a decimal point is held back from the
// wire — and a withheld write mints no dirty token, since no echo will ever
// arrive to clear it. The displayed multiplier changes only when the
// authoritative echo lands.
func (b *Board) SetMultiplier(id types.CriterionID, raw string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readOnly {
		return grid.ErrReadOnly
	}
	c := b.find(id)
	if c == nil {
		return ErrCriterionNotFound
	}
	if strings.HasSuffix(raw, ".") {
		b.logger.Debugw("multiplier write withheld, incomplete value", "id", id, "value", raw)
		return nil
	}
	token := b.tokens()
	c.Dirty = token
	return b.send(types.ActionWriteResultMultiplier, types.WriteResultMultiplierPayload{
		Criterion: id,
		Value:     raw,
		Token:     token,
	})
}

// Criteria returns a copy of the ordered criteria sequence.
func (b *Board) Criteria() []Criterion {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Criterion, len(b.criteria))
	for i, c := range b.criteria {
		out[i] = *c
	}
	return out
}

// CriterionIDs returns the ordered criterion identities, for FieldKey
// enumeration.
func (b *Board) CriterionIDs() []types.CriterionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.CriterionID, len(b.criteria))
	for i, c := range b.criteria {
		out[i] = c.ID
	}
	return out
}

func (b *Board) find(id types.CriterionID) *Criterion {
	for _, c := range b.criteria {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (b *Board) sortCriteria() {
	sort.SliceStable(b.criteria, func(i, j int) bool {
		return b.criteria[i].Pos < b.criteria[j].Pos
	})
}

func fromWire(e types.Criterion) *Criterion {
	return &Criterion{
		ID:         e.ID,
		Name:       e.Name,
		Limit:      e.Limit,
		Multiplier: e.Multiplier,
		Pos:        e.Pos,
	}
}

func applyParams(c *Criterion, p types.CriterionParams) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Limit != nil {
		c.Limit = *p.Limit
	}
	if p.Multiplier != nil {
		c.Multiplier = *p.Multiplier
	}
	if p.Pos != nil {
		c.Pos = *p.Pos
	}
}
