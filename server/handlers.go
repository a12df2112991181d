package server

import (
	"encoding/json"
	"fmt"

	"github.com/kselvad/scoregrid/types"
)

// dispatch routes one accepted action to its handler. Callers hold h.mu.
func (h *Hub) dispatch(id types.ClientID, action string, payload json.RawMessage) error {
	switch action {
	case types.ActionAcquireLock:
		return h.handleAcquireLock(id, payload)
	case types.ActionReleaseLock:
		return h.handleReleaseLock(id, payload)
	case types.ActionWriteResult:
		return h.handleWriteResult(payload)
	case types.ActionResetResult:
		return h.handleResetResult(payload)
	case types.ActionWriteComment:
		return h.handleWriteComment(payload)
	case types.ActionResetComment:
		return h.handleResetComment(payload)
	case types.ActionUpdateCriterion:
		return h.handleUpdateCriterion(payload)
	case types.ActionAddCriterion:
		return h.handleAddCriterion(payload)
	case types.ActionDeleteCriterion:
		return h.handleDeleteCriterion(payload)
	case types.ActionDragDrop:
		return h.handleDragDrop(payload)
	case types.ActionWriteResultMultiplier:
		return h.handleWriteResultMultiplier(payload)
	case types.ActionAddJudge:
		return h.handleAddJudge(payload)
	case types.ActionDeleteJudge:
		return h.handleDeleteJudge(payload)
	case types.ActionZeroResults:
		return h.handleZero(func(types.User) bool { return true })
	case types.ActionZeroNoSolution:
		return h.handleZero(func(u types.User) bool { return u.NoSolution })
	case types.ActionFinish:
		return h.handleFinish()
	default:
		return ErrUnknownAction
	}
}

func decodePayload(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// handleAcquireLock grants the lock to the requester unconditionally.
// Arbitration is last writer wins; the broadcast names the final holder
// and every client converges on it.
func (h *Hub) handleAcquireLock(id types.ClientID, payload json.RawMessage) error {
	var p types.AcquireLockPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	h.state.acquireLock(p.Lock, id)
	h.broadcast(types.EventLockAcquire, types.LockAcquirePayload{Lock: p.Lock, ClientID: id})
	return nil
}

// handleReleaseLock releases only if the requester is the current holder;
// a stale release from a superseded client is ignored.
func (h *Hub) handleReleaseLock(id types.ClientID, payload json.RawMessage) error {
	var p types.ReleaseLockPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if !h.state.releaseLock(p.Lock, id) {
		h.logger.Debugw("ignored release from non-holder", "client", id, "lock", p.Lock)
		return nil
	}
	h.broadcast(types.EventLockRelease, types.LockReleasePayload{Lock: p.Lock})
	return nil
}

// handleWriteResult accepts a score write, clamps it to the criterion's
// range, and echoes the canonical value to everyone with the writer's
// token attached. Only the writer's own pending edit matches that token.
func (h *Hub) handleWriteResult(payload json.RawMessage) error {
	var p types.WriteResultPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	value, err := h.state.setResult(p.User, p.Criterion, p.Value)
	if err != nil {
		return err
	}
	h.broadcast(types.EventResultsClean, types.ResultCleanPayload{
		User:      p.User,
		Criterion: p.Criterion,
		Value:     types.FlexValue(value),
		Token:     p.Token,
	})
	return nil
}

// handleResetResult rebroadcasts the authoritative value for one score so
// every client discards whatever it was showing.
func (h *Hub) handleResetResult(payload json.RawMessage) error {
	var p types.ResetResultPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	h.broadcastResultReset(types.ScoreKey(p.User, p.Criterion))
	return nil
}

func (h *Hub) handleWriteComment(payload json.RawMessage) error {
	var p types.WriteCommentPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	value := h.state.setComment(p.User, p.Value)
	h.broadcast(types.EventCommentsClean, types.CommentCleanPayload{
		User:  p.User,
		Value: types.FlexValue(value),
		Token: p.Token,
	})
	return nil
}

func (h *Hub) handleResetComment(payload json.RawMessage) error {
	var p types.ResetCommentPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	key := types.CommentKey(p.User)
	h.broadcast(types.EventCommentsReset, types.CommentResetPayload{
		User:  p.User,
		Value: types.FlexValue(h.state.value(key)),
	})
	return nil
}

func (h *Hub) handleUpdateCriterion(payload json.RawMessage) error {
	var p types.UpdateCriterionPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if !h.state.updateCriterion(p.ID, p.Params) {
		return fmt.Errorf("unknown criterion %q", p.ID)
	}
	h.broadcast(types.EventCriteriaClean, types.CriterionCleanPayload{
		ID:     p.ID,
		Params: p.Params,
		Token:  p.Token,
	})
	return nil
}

func (h *Hub) handleAddCriterion(payload json.RawMessage) error {
	var p types.AddCriterionPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	c := h.state.addCriterion(p.Name, p.Limit)
	h.broadcast(types.EventCriteriaAdd, c)
	return nil
}

// handleDeleteCriterion removes the criterion together with its column of
// scores and any locks on them.
func (h *Hub) handleDeleteCriterion(payload json.RawMessage) error {
	var p types.DeleteCriterionPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if !h.state.deleteCriterion(p.ID) {
		return fmt.Errorf("unknown criterion %q", p.ID)
	}
	for lock, holder := range h.state.locks {
		key, err := types.ParseLockID(lock)
		if err != nil || key.Criterion != p.ID {
			continue
		}
		if h.state.releaseLock(lock, holder) {
			h.broadcast(types.EventLockRelease, types.LockReleasePayload{Lock: lock})
		}
	}
	h.broadcast(types.EventCriteriaDelete, types.DeleteCriterionPayload{ID: p.ID})
	return nil
}

// handleDragDrop reorders the criteria and rebroadcasts the whole list:
// positions shift for every criterion after the insertion point, so a
// full reload is simpler than a diff.
func (h *Hub) handleDragDrop(payload json.RawMessage) error {
	var p types.DragDropPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if !h.state.moveCriterion(p.ID, p.Pos) {
		return fmt.Errorf("unknown criterion %q", p.ID)
	}
	h.broadcast(types.EventCriteriaLoad, h.state.criteria)
	return nil
}

func (h *Hub) handleWriteResultMultiplier(payload json.RawMessage) error {
	var p types.WriteResultMultiplierPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if err := h.state.setMultiplier(p.Criterion, p.Value); err != nil {
		return err
	}
	m := h.state.criterion(p.Criterion).Multiplier
	h.broadcast(types.EventCriteriaClean, types.CriterionCleanPayload{
		ID:     p.Criterion,
		Params: types.CriterionParams{Multiplier: &m},
		Token:  p.Token,
	})
	return nil
}

func (h *Hub) handleAddJudge(payload json.RawMessage) error {
	var p types.AddJudgePayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	j := h.state.addJudge(p.Name)
	h.broadcast(types.EventJudgesAdd, j)
	return nil
}

func (h *Hub) handleDeleteJudge(payload json.RawMessage) error {
	var p types.DeleteJudgePayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if !h.state.deleteJudge(p.ID) {
		return fmt.Errorf("unknown judge %q", p.ID)
	}
	h.broadcast(types.EventJudgesDelete, types.DeleteJudgePayload{ID: p.ID})
	return nil
}

// handleZero zeroes the scores of every matching user and broadcasts one
// reset per touched field. Per-field resets, not a bulk reload, so each
// client's engine can clear dirty state and timers field by field.
func (h *Hub) handleZero(match func(types.User) bool) error {
	for _, key := range h.state.zeroScores(match) {
		h.broadcastResultReset(key)
	}
	return nil
}

// handleFinish freezes the board permanently and tells every client.
func (h *Hub) handleFinish() error {
	h.state.finished = true
	h.readOnly = true
	h.broadcast(types.EventAppFinish, struct{}{})
	h.logger.Infow("judging finished, board frozen")
	return nil
}

func (h *Hub) broadcastResultReset(key types.FieldKey) {
	h.broadcast(types.EventResultsReset, types.ResultResetPayload{
		User:      key.User,
		Criterion: key.Criterion,
		Value:     types.FlexValue(h.state.value(key)),
	})
}
