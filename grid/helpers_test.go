package grid

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kselvad/scoregrid/clock"
	"github.com/kselvad/scoregrid/types"
)

var errSendFailed = errors.New("send failed")

// sentAction is one action captured by the mock performer.
type sentAction struct {
	action  string
	payload any
}

// mockPerformer records every outbound action for inspection.
type mockPerformer struct {
	mu   sync.Mutex
	sent []sentAction
	err  error
}

func (p *mockPerformer) Perform(action string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, sentAction{action: action, payload: payload})
	return nil
}

func (p *mockPerformer) all() []sentAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentAction(nil), p.sent...)
}

func (p *mockPerformer) count(action string) int {
	n := 0
	for _, s := range p.all() {
		if s.action == action {
			n++
		}
	}
	return n
}

func (p *mockPerformer) last() (sentAction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return sentAction{}, false
	}
	return p.sent[len(p.sent)-1], true
}

func (p *mockPerformer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}

// mockTimer is a manually fired timer.
type mockTimer struct {
	mu      sync.Mutex
	ch      chan time.Time
	d       time.Duration
	stopped bool
}

func (t *mockTimer) Chan() <-chan time.Time { return t.ch }

func (t *mockTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *mockTimer) Reset(d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.d = d
	was := !t.stopped
	t.stopped = false
	return was
}

// fire delivers the expiry regardless of Stop, mimicking the race where a
// timer fires just as it is being disarmed.
func (t *mockTimer) fire() {
	t.ch <- time.Now()
}

// mockClock hands out manually fired timers and a settable now.
type mockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Unix(1700000000, 0)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }

func (c *mockClock) After(time.Duration) <-chan time.Time { return make(chan time.Time) }

func (c *mockClock) Sleep(time.Duration) {}

func (c *mockClock) NewTimer(d time.Duration) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{ch: make(chan time.Time, 1), d: d}
	c.timers = append(c.timers, t)
	return t
}

func (c *mockClock) NewTicker(time.Duration) clock.Ticker {
	panic("mockClock: NewTicker not used")
}

// timerCount returns how many timers the engine has ever created.
func (c *mockClock) timerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// timer returns the i-th created timer.
func (c *mockClock) timer(i int) *mockTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

// seqTokens returns a deterministic token source: tok-1, tok-2, ...
func seqTokens() func() types.Token {
	n := 0
	return func() types.Token {
		n++
		return types.Token(fmt.Sprintf("tok-%d", n))
	}
}

// newTestEngine builds an engine wired to a mock performer and mock clock,
// with deterministic tokens.
func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *mockPerformer, *mockClock) {
	t.Helper()
	perf := &mockPerformer{}
	clk := newMockClock()
	base := []EngineOption{
		WithClock(clk),
		WithTokenSource(seqTokens()),
	}
	e, err := NewEngine(perf, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e, perf, clk
}

// waitFor polls cond until it holds or the deadline passes. Timer expiry is
// handled on a goroutine, so tests observing its effects must wait.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// neverHappens asserts cond stays false for a short observation window.
func neverHappens(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			t.Fatalf("unexpected: %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
