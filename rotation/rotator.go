// Package rotation drives the presenter-side reissue loop: a countdown of
// ticks per validity window, a fresh token whenever it runs out, and an
// on-demand reset.
package rotation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/internal/pkg/log"
)

const (
	DefaultWindow   = 60 * time.Second
	DefaultInterval = time.Second
)

// IssueFunc produces a token stamped at now.
type IssueFunc func(ctx context.Context, now time.Time) (core.Token, error)

// Ticker delivers loop ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Config tunes a Rotator. Zero values take defaults.
type Config struct {
	Window    time.Duration
	Interval  time.Duration
	Now       func() time.Time
	NewTicker func(time.Duration) Ticker
	// OnError receives tick issuance failures. The tick is skipped and the
	// next one retries.
	OnError func(error)
}

// State is a snapshot of a Rotator.
type State struct {
	Token     core.Token
	Remaining time.Duration
	Issued    int
	Running   bool
}

// Rotator reissues a token every window. Ticks and manual regeneration are
// serialized by mu and never overlap.
type Rotator struct {
	issue  IssueFunc
	cfg    Config
	period int

	mu        sync.Mutex
	token     core.Token
	remaining int
	issued    int
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a stopped Rotator.
func New(issue IssueFunc, cfg Config) *Rotator {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTimeTicker
	}

	period := int(cfg.Window / cfg.Interval)
	if period < 1 {
		period = 1
	}

	return &Rotator{issue: issue, cfg: cfg, period: period}
}

// Start issues the first token and starts the loop. When the first issuance
// fails the error is returned and nothing is started. Starting a running
// Rotator returns its current token.
//
// The loop outlives ctx's cancellation; only Stop ends it. ctx values such as
// the logger are kept.
func (r *Rotator) Start(ctx context.Context) (core.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return r.token, nil
	}

	tok, err := r.issue(ctx, r.cfg.Now())
	if err != nil {
		return core.Token{}, err
	}
	r.token = tok
	r.remaining = r.period
	r.issued++
	r.running = true

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(loopCtx, r.cfg.NewTicker(r.cfg.Interval), r.done)

	return tok, nil
}

func (r *Rotator) run(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			r.tick(ctx)
		}
	}
}

func (r *Rotator) tick(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	if r.remaining > 0 {
		r.remaining--
	}
	if r.remaining > 0 {
		return
	}

	tok, err := r.issue(ctx, r.cfg.Now())
	if err != nil {
		log.From(ctx).Warn("rotation_issue_failed",
			slog.String("op", "rotation.Rotator.tick"),
			slog.String("err", err.Error()),
		)
		if r.cfg.OnError != nil {
			r.cfg.OnError(err)
		}
		return
	}

	r.token = tok
	r.remaining = r.period
	r.issued++
}

// Regenerate issues a token immediately and restarts the countdown.
func (r *Rotator) Regenerate(ctx context.Context) (core.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return core.Token{}, core.ErrNotPresenting
	}

	tok, err := r.issue(ctx, r.cfg.Now())
	if err != nil {
		return core.Token{}, err
	}

	r.token = tok
	r.remaining = r.period
	r.issued++
	return tok, nil
}

// State returns a snapshot.
func (r *Rotator) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return State{
		Token:     r.token,
		Remaining: time.Duration(r.remaining) * r.cfg.Interval,
		Issued:    r.issued,
		Running:   r.running,
	}
}

// Stop ends the loop and waits for it to exit. No tick is processed after
// Stop returns. Stopping a stopped Rotator is a no-op.
func (r *Rotator) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.remaining = 0
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	cancel()
	<-done
}
