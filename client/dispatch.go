package client

import (
	"encoding/json"
	"fmt"

	"github.com/kselvad/scoregrid/types"
)

// HandleEvent routes one inbound broadcast into local state. The transport
// calls it from a single goroutine, preserving the per-connection delivery
// order the protocol relies on for any one field.
func (c *Client) HandleEvent(action string, payload json.RawMessage) error {
	switch action {
	case types.EventAppReady:
		var p types.ReadyPayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		c.applyReady(p)

	case types.EventAppFinish:
		c.engine.SetReadOnly(true)
		c.board.SetReadOnly(true)
		c.logger.Infow("judging finished, board is read-only")

	case types.EventLockAcquire:
		var p types.LockAcquirePayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		return c.engine.ApplyLockAcquire(p.Lock, p.ClientID)

	case types.EventLockRelease:
		var p types.LockReleasePayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		return c.engine.ApplyLockRelease(p.Lock)

	case types.EventResultsLoad:
		var entries []types.ResultEntry
		if err := decode(action, payload, &entries); err != nil {
			return err
		}
		c.engine.LoadResults(entries)

	case types.EventResultsClean:
		var p types.ResultCleanPayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		c.engine.ApplyClean(types.ScoreKey(p.User, p.Criterion), string(p.Value), p.Token)

	case types.EventResultsReset:
		var p types.ResultResetPayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		c.engine.ApplyReset(types.ScoreKey(p.User, p.Criterion), string(p.Value))

	case types.EventCommentsLoad:
		var entries []types.CommentEntry
		if err := decode(action, payload, &entries); err != nil {
			return err
		}
		c.engine.LoadComments(entries)

	case types.EventCommentsClean:
		var p types.CommentCleanPayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		c.engine.ApplyClean(types.CommentKey(p.User), string(p.Value), p.Token)

	case types.EventCommentsReset:
		var p types.CommentResetPayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		c.engine.ApplyReset(types.CommentKey(p.User), string(p.Value))

	case types.EventCriteriaLoad:
		var entries []types.Criterion
		if err := decode(action, payload, &entries); err != nil {
			return err
		}
		c.board.LoadCriteria(entries)

	case types.EventCriteriaAdd:
		var entry types.Criterion
		if err := decode(action, payload, &entry); err != nil {
			return err
		}
		c.board.ApplyCriterionAdd(entry)

	case types.EventCriteriaDelete:
		var p types.DeleteCriterionPayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		c.board.ApplyCriterionDelete(p.ID)
		c.engine.DropCriterion(p.ID)

	case types.EventCriteriaClean:
		var p types.CriterionCleanPayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		c.board.ApplyCriterionClean(p)

	case types.EventJudgesLoad:
		var entries []types.Judge
		if err := decode(action, payload, &entries); err != nil {
			return err
		}
		c.board.LoadJudges(entries)

	case types.EventJudgesAdd:
		var entry types.Judge
		if err := decode(action, payload, &entry); err != nil {
			return err
		}
		c.board.ApplyJudgeAdd(entry)

	case types.EventJudgesDelete:
		var p types.DeleteJudgePayload
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		c.board.ApplyJudgeDelete(p.ID)

	case types.EventUsersLoad:
		var entries []types.User
		if err := decode(action, payload, &entries); err != nil {
			return err
		}
		c.board.LoadUsers(entries)

	case types.EventUsersAdd:
		var entry types.User
		if err := decode(action, payload, &entry); err != nil {
			return err
		}
		c.board.ApplyUserAdd(entry)

	case types.EventUsersDelete:
		var p struct {
			ID types.UserID `json:"id"`
		}
		if err := decode(action, payload, &p); err != nil {
			return err
		}
		c.board.ApplyUserDelete(p.ID)
		c.engine.DropUser(p.ID)

	default:
		c.logger.Debugw("unhandled broadcast", "action", action)
	}
	return nil
}

func (c *Client) applyReady(p types.ReadyPayload) {
	c.engine.SetIdentity(p.ClientID)
	c.engine.SetReadOnly(p.ReadOnly)
	c.board.SetReadOnly(p.ReadOnly)

	c.mu.Lock()
	c.ready = true
	c.contestName = p.ContestName
	c.taskName = p.TaskName
	c.mu.Unlock()

	c.logger.Infow("session ready",
		"client", p.ClientID,
		"contest", p.ContestName,
		"task", p.TaskName,
		"read_only", p.ReadOnly,
	)
}

func decode(action string, payload json.RawMessage, into any) error {
	if err := json.Unmarshal(payload, into); err != nil {
		return fmt.Errorf("malformed %s payload: %w", action, err)
	}
	return nil
}
