// Package client assembles the full client side of the scoring grid: it
// routes authoritative broadcasts into the sync engine and the roster
// collections, tracks session readiness and the read-only freeze, and wraps
// the destructive collection actions behind an explicit user confirmation.
package client

// Confirmer asks the user to confirm a destructive action before it is
// attempted. Returning false aborts the action with no side effect.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmation prompts for the destructive actions.
const (
	promptDeleteCriterion = "Delete this criterion and all its scores?"
	promptFinish          = "Finish judging? The board becomes read-only for everyone."
	promptZeroResults     = "Zero out all results?"
	promptZeroNoSolution  = "Zero out results of users without a solution?"
)
