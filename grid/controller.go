package grid

import (
	"strings"

	"github.com/kselvad/scoregrid/types"
)

// fieldActions binds one field kind to its wire actions. The same state
// machine drives every kind; only the message names, payload shapes, and
// the transmission gate differ.
type fieldActions struct {
	kind string

	writeAction string
	resetAction string

	// transmittable gates outbound writes. A value that fails the gate is
	// still applied locally as dirty, but is withheld from the wire until a
	// later change produces a transmittable value.
	transmittable func(raw string) bool

	writePayload func(key types.FieldKey, value string, token types.Token) any
	resetPayload func(key types.FieldKey) any
}

// scoreField carries numeric per-user per-criterion scores.
var scoreField = fieldActions{
	kind:          "score",
	writeAction:   types.ActionWriteResult,
	resetAction:   types.ActionResetResult,
	transmittable: isCompleteNumber,
	writePayload: func(key types.FieldKey, value string, token types.Token) any {
		return types.WriteResultPayload{
			User:      key.User,
			Criterion: key.Criterion,
			Value:     value,
			Token:     token,
		}
	},
	resetPayload: func(key types.FieldKey) any {
		return types.ResetResultPayload{User: key.User, Criterion: key.Criterion}
	},
}

// commentField carries per-user free-text comments. Any string is
// transmittable.
var commentField = fieldActions{
	kind:          "comment",
	writeAction:   types.ActionWriteComment,
	resetAction:   types.ActionResetComment,
	transmittable: func(string) bool { return true },
	writePayload: func(key types.FieldKey, value string, token types.Token) any {
		return types.WriteCommentPayload{User: key.User, Value: value, Token: token}
	},
	resetPayload: func(key types.FieldKey) any {
		return types.ResetCommentPayload{User: key.User}
	},
}

// actionsFor selects the wire binding for a key.
func actionsFor(key types.FieldKey) fieldActions {
	if key.IsComment() {
		return commentField
	}
	return scoreField
}

// isCompleteNumber reports whether raw may be transmitted as a score. A
// value ending in a decimal point is a syntactically incomplete literal the
// user is still typing; it must never reach the authoritative source.
// Range validation is deliberately not performed here: the server enforces
// criterion limits.
func isCompleteNumber(raw string) bool {
	return !strings.HasSuffix(raw, ".")
}
