package types

import (
	"encoding/json"
	"strconv"
)

// Envelope is the frame exchanged over the duplex channel in both
// directions: a named action and its JSON payload.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Actions a client asks the authoritative server to perform.
const (
	ActionAcquireLock           = "acquire_lock"
	ActionReleaseLock           = "release_lock"
	ActionWriteResult           = "write_result"
	ActionResetResult           = "reset_result"
	ActionWriteComment          = "write_comment"
	ActionResetComment          = "reset_comment"
	ActionUpdateCriterion       = "update_criterion"
	ActionDeleteCriterion       = "delete_criterion"
	ActionAddCriterion          = "add_criterion"
	ActionDragDrop              = "drag_drop"
	ActionFinish                = "finish"
	ActionZeroResults           = "zero_results"
	ActionZeroNoSolution        = "zero_no_solution"
	ActionAddJudge              = "add_judge"
	ActionDeleteJudge           = "delete_judge"
	ActionWriteResultMultiplier = "write_result_multiplier"
)

// Broadcast events the authoritative server pushes to every client,
// including the one whose action caused them.
const (
	EventCriteriaLoad   = "criteria/load"
	EventCriteriaAdd    = "criteria/add"
	EventCriteriaDelete = "criteria/delete"
	EventCriteriaClean  = "criteria/cleanUpdate"
	EventResultsLoad    = "results/load"
	EventResultsClean   = "results/cleanUpdate"
	EventResultsReset   = "results/reset"
	EventCommentsLoad   = "comments/load"
	EventCommentsClean  = "comments/cleanUpdate"
	EventCommentsReset  = "comments/reset"
	EventJudgesLoad     = "judges/load"
	EventJudgesAdd      = "judges/add"
	EventJudgesDelete   = "judges/delete"
	EventUsersLoad      = "users/load"
	EventUsersAdd       = "users/add"
	EventUsersDelete    = "users/delete"
	EventLockAcquire    = "locks/acquire"
	EventLockRelease    = "locks/release"
	EventAppReady       = "app/ready"
	EventAppFinish      = "app/finish"
)

// FlexValue is a field value on the wire. The server historically emits
// scores as JSON numbers and comments as JSON strings; FlexValue accepts
// either and keeps the exact textual form.
type FlexValue string

func (v *FlexValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = FlexValue(s)
		return nil
	}
	*v = FlexValue(b)
	return nil
}

func (v FlexValue) MarshalJSON() ([]byte, error) {
	if v != "" {
		if _, err := strconv.ParseFloat(string(v), 64); err == nil {
			return []byte(v), nil
		}
	}
	return json.Marshal(string(v))
}

// CriterionParams is a partial patch of a criterion's editable attributes.
// Nil fields are left untouched.
type CriterionParams struct {
	Name       *string  `json:"name,omitempty"`
	Limit      *float64 `json:"limit,omitempty"`
	Multiplier *float64 `json:"multiplier,omitempty"`
	Pos        *int     `json:"pos,omitempty"`
}

// Criterion is the wire form of one scoring criterion.
type Criterion struct {
	ID         CriterionID `json:"id"`
	Name       string      `json:"name"`
	Limit      float64     `json:"limit"`
	Multiplier float64     `json:"multiplier"`
	Pos        int         `json:"pos"`
}

// Judge is the wire form of one judge account.
type Judge struct {
	ID   JudgeID `json:"id"`
	Name string  `json:"name"`
}

// User is the wire form of one scored subject.
type User struct {
	ID         UserID `json:"id"`
	Name       string `json:"name"`
	NoSolution bool   `json:"no_solution"`
}

// --- client -> server payloads ---

type AcquireLockPayload struct {
	Lock LockID `json:"lock"`
}

type ReleaseLockPayload struct {
	Lock LockID `json:"lock"`
}

type WriteResultPayload struct {
	User      UserID      `json:"user"`
	Criterion CriterionID `json:"criterion"`
	Value     string      `json:"value"`
	Token     Token       `json:"token"`
}

type ResetResultPayload struct {
	User      UserID      `json:"user"`
	Criterion CriterionID `json:"criterion"`
}

type WriteCommentPayload struct {
	User  UserID `json:"user"`
	Value string `json:"value"`
	Token Token  `json:"token"`
}

type ResetCommentPayload struct {
	User UserID `json:"user"`
}

type UpdateCriterionPayload struct {
	ID     CriterionID     `json:"id"`
	Params CriterionParams `json:"params"`
	Token  Token           `json:"token"`
}

type AddCriterionPayload struct {
	Name  string  `json:"name"`
	Limit float64 `json:"limit"`
}

type DeleteCriterionPayload struct {
	ID CriterionID `json:"id"`
}

type DragDropPayload struct {
	ID  CriterionID `json:"id"`
	Pos int         `json:"pos"`
}

type AddJudgePayload struct {
	Name string `json:"name"`
}

type DeleteJudgePayload struct {
	ID JudgeID `json:"id"`
}

type WriteResultMultiplierPayload struct {
	Criterion CriterionID `json:"criterion"`
	Value     string      `json:"value"`
	Token     Token       `json:"token"`
}

// --- server -> client payloads ---

type ReadyPayload struct {
	ClientID    ClientID `json:"client_id"`
	ReadOnly    bool     `json:"read_only"`
	ContestName string   `json:"contest_name"`
	TaskName    string   `json:"task_name"`
}

type LockAcquirePayload struct {
	Lock     LockID   `json:"lock"`
	ClientID ClientID `json:"client_id"`
}

type LockReleasePayload struct {
	Lock LockID `json:"lock"`
}

type ResultEntry struct {
	User      UserID      `json:"user"`
	Criterion CriterionID `json:"criterion"`
	Value     FlexValue   `json:"value"`
}

type ResultCleanPayload struct {
	User      UserID      `json:"user"`
	Criterion CriterionID `json:"criterion"`
	Value     FlexValue   `json:"value"`
	Token     Token       `json:"token"`
}

type ResultResetPayload struct {
	User      UserID      `json:"user"`
	Criterion CriterionID `json:"criterion"`
	Value     FlexValue   `json:"value"`
}

type CommentEntry struct {
	User  UserID    `json:"user"`
	Value FlexValue `json:"value"`
}

type CommentCleanPayload struct {
	User  UserID    `json:"user"`
	Value FlexValue `json:"value"`
	Token Token     `json:"token"`
}

type CommentResetPayload struct {
	User  UserID    `json:"user"`
	Value FlexValue `json:"value"`
}

type CriterionCleanPayload struct {
	ID     CriterionID     `json:"id"`
	Params CriterionParams `json:"params"`
	Token  Token           `json:"token"`
}
