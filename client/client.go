package client

import (
	"sync"

	"github.com/kselvad/scoregrid/grid"
	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/roster"
	"github.com/kselvad/scoregrid/types"
)

// Client is the top-level client-side assembly: one sync engine, one
// roster board, one duplex channel.
type Client struct {
	performer grid.Performer
	engine    *grid.Engine
	board     *roster.Board
	logger    logger.Logger
	confirmer Confirmer

	mu          sync.RWMutex
	ready       bool
	contestName string
	taskName    string
}

// Option customizes a Client at construction time.
type Option func(*options)

type options struct {
	logger        logger.Logger
	confirmer     Confirmer
	engineOptions []grid.EngineOption
	boardOptions  []roster.BoardOption
}

// WithLogger sets the logger used by the client and its components.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConfirmer sets the confirmation prompt used before destructive
// actions. Without one, destructive actions are refused.
func WithConfirmer(c Confirmer) Option {
	return func(o *options) { o.confirmer = c }
}

// WithEngineOptions forwards options to the underlying sync engine.
func WithEngineOptions(opts ...grid.EngineOption) Option {
	return func(o *options) { o.engineOptions = append(o.engineOptions, opts...) }
}

// WithBoardOptions forwards options to the underlying roster board.
func WithBoardOptions(opts ...roster.BoardOption) Option {
	return func(o *options) { o.boardOptions = append(o.boardOptions, opts...) }
}

// New assembles a client around the outbound half of a duplex channel.
// Inbound broadcasts must be fed to HandleEvent by the transport.
func New(performer grid.Performer, opts ...Option) (*Client, error) {
	o := &options{
		logger:    logger.NewNoOpLogger(),
		confirmer: ConfirmerFunc(func(string) bool { return false }),
	}
	for _, opt := range opts {
		opt(o)
	}

	engineOpts := append([]grid.EngineOption{grid.WithLogger(o.logger)}, o.engineOptions...)
	engine, err := grid.NewEngine(performer, engineOpts...)
	if err != nil {
		return nil, err
	}

	boardOpts := append([]roster.BoardOption{roster.WithLogger(o.logger)}, o.boardOptions...)
	board := roster.NewBoard(performer, boardOpts...)

	return &Client{
		performer: performer,
		engine:    engine,
		board:     board,
		logger:    o.logger.WithComponent("client"),
		confirmer: o.confirmer,
	}, nil
}

// Engine exposes the sync engine for field-level UI binding.
func (c *Client) Engine() *grid.Engine { return c.engine }

// Board exposes the roster collections for grid layout.
func (c *Client) Board() *roster.Board { return c.board }

// Ready reports whether app/ready has been received on this connection.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// ContestName returns the contest name announced by app/ready.
func (c *Client) ContestName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contestName
}

// TaskName returns the task name announced by app/ready.
func (c *Client) TaskName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.taskName
}

// Close releases the engine's timers.
func (c *Client) Close() {
	c.engine.Close()
}

// DeleteCriterion deletes a criterion after user confirmation.
// Cancellation aborts with no side effect and no error.
func (c *Client) DeleteCriterion(id types.CriterionID) error {
	if !c.confirmer.Confirm(promptDeleteCriterion) {
		return nil
	}
	return c.board.DeleteCriterion(id)
}

// Finish ends judging after user confirmation: the server broadcasts
// app/finish and every client freezes.
func (c *Client) Finish() error {
	if !c.confirmer.Confirm(promptFinish) {
		return nil
	}
	return c.perform(types.ActionFinish, struct{}{})
}

// ZeroResults zeroes every result after user confirmation.
func (c *Client) ZeroResults() error {
	if !c.confirmer.Confirm(promptZeroResults) {
		return nil
	}
	return c.perform(types.ActionZeroResults, struct{}{})
}

// ZeroNoSolution zeroes the results of users without a solution after user
// confirmation.
func (c *Client) ZeroNoSolution() error {
	if !c.confirmer.Confirm(promptZeroNoSolution) {
		return nil
	}
	return c.perform(types.ActionZeroNoSolution, struct{}{})
}

func (c *Client) perform(action string, payload any) error {
	if c.engine.ReadOnly() {
		return grid.ErrReadOnly
	}
	return c.performer.Perform(action, payload)
}
