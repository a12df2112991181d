// Package roster maintains the client's ordered collections — criteria,
// judges, users — fed by authoritative broadcasts, and applies the same
// token-matching reconciliation discipline as the field protocol to
// editable entity attributes such as a criterion's name or limit.
package roster

import (
	"sync"

	"github.com/kselvad/scoregrid/grid"
	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/types"

	"github.com/google/uuid"
)

// Criterion is the client's belief about one scoring criterion. Dirty is
// set while a locally originated attribute edit awaits its authoritative
// echo.
type Criterion struct {
	ID         types.CriterionID
	Name       string
	Limit      float64
	Multiplier float64
	Pos        int
	Dirty      types.Token
}

// Board holds the three collections and emits collection-level actions.
type Board struct {
	performer grid.Performer
	logger    logger.Logger
	tokens    func() types.Token

	mu       sync.RWMutex
	readOnly bool
	criteria []*Criterion
	judges   []types.Judge
	users    []types.User
}

// BoardOption customizes a Board at construction time.
type BoardOption func(*Board)

// WithLogger sets the logger used by the board.
func WithLogger(l logger.Logger) BoardOption {
	return func(b *Board) { b.logger = l }
}

// WithTokenSource replaces the dirty-token generator, primarily for tests.
func WithTokenSource(fn func() types.Token) BoardOption {
	return func(b *Board) { b.tokens = fn }
}

// NewBoard creates an empty board that sends collection actions through
// performer.
func NewBoard(performer grid.Performer, opts ...BoardOption) *Board {
	b := &Board{
		performer: performer,
		logger:    logger.NewNoOpLogger(),
		tokens: func() types.Token {
			return types.Token(uuid.NewString())
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithComponent("roster")
	return b
}

// SetReadOnly switches the freeze mode: no outbound actions while set.
func (b *Board) SetReadOnly(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readOnly = on
}

// send emits one fire-and-forget action unless frozen. Callers must hold
// b.mu.
func (b *Board) send(action string, payload any) error {
	if b.readOnly {
		return grid.ErrReadOnly
	}
	if err := b.performer.Perform(action, payload); err != nil {
		b.logger.Warnw("perform failed", "action", action, "error", err)
		return err
	}
	return nil
}
