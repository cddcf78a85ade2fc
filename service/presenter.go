package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/internal/pkg/log"
	"github.com/layer-3/attendease/rotation"
)

// Presentation is what a presenting screen shows: the current token and the
// countdown to the next one.
type Presentation struct {
	CourseID  string        `json:"course_id"`
	Token     string        `json:"token"`
	IssuedAt  int64         `json:"issued_at"`
	Remaining time.Duration `json:"-"`
	Seconds   int64         `json:"seconds_remaining"`
	Running   bool          `json:"running"`
}

// Presenter runs one rotation loop per presented course
type Presenter struct {
	svc      *AttendanceService
	interval time.Duration
	ticker   func(time.Duration) rotation.Ticker

	mu       sync.Mutex
	rotators map[string]*rotation.Rotator
}

// PresenterOption configures a Presenter
type PresenterOption func(*Presenter)

// WithTickInterval sets the countdown resolution
func WithTickInterval(d time.Duration) PresenterOption {
	return func(p *Presenter) { p.interval = d }
}

// WithTicker replaces the loop ticker, for tests
func WithTicker(newTicker func(time.Duration) rotation.Ticker) PresenterOption {
	return func(p *Presenter) { p.ticker = newTicker }
}

// NewPresenter creates a presenter issuing through svc
func NewPresenter(svc *AttendanceService, opts ...PresenterOption) *Presenter {
	p := &Presenter{
		svc:      svc,
		interval: rotation.DefaultInterval,
		rotators: make(map[string]*rotation.Rotator),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins presenting the course. Starting a course that is already
// presented returns its current state.
func (p *Presenter) Start(ctx context.Context, courseID string) (Presentation, error) {
	const op = "service.Presenter.Start"

	p.mu.Lock()
	r, ok := p.rotators[courseID]
	if !ok {
		r = rotation.New(func(ctx context.Context, now time.Time) (core.Token, error) {
			return p.svc.IssueTokenAt(ctx, courseID, now)
		}, rotation.Config{
			Window:    p.svc.Window(),
			Interval:  p.interval,
			Now:       p.svc.Now,
			NewTicker: p.ticker,
		})
		p.rotators[courseID] = r
	}
	p.mu.Unlock()

	// Issuance may hit the store and the broker; other courses stay
	// reachable meanwhile. The rotator serializes concurrent starts.
	if _, err := r.Start(ctx); err != nil {
		running := r.State().Running
		p.mu.Lock()
		if p.rotators[courseID] == r && !running {
			delete(p.rotators, courseID)
		}
		p.mu.Unlock()
		return Presentation{}, fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	current := p.rotators[courseID] == r
	p.mu.Unlock()
	if !current {
		// Stopped while the first token was being issued
		r.Stop()
		return Presentation{}, core.ErrNotPresenting
	}

	log.From(ctx).Info("presentation_started", slog.String("op", op), slog.String("course_id", courseID))
	return present(courseID, r.State()), nil
}

// Current returns the state of a presented course
func (p *Presenter) Current(courseID string) (Presentation, error) {
	r, err := p.rotator(courseID)
	if err != nil {
		return Presentation{}, err
	}
	st := r.State()
	if !st.Running {
		return Presentation{}, core.ErrNotPresenting
	}
	return present(courseID, st), nil
}

// Regenerate reissues the course's token now and restarts its countdown
func (p *Presenter) Regenerate(ctx context.Context, courseID string) (Presentation, error) {
	const op = "service.Presenter.Regenerate"

	r, err := p.rotator(courseID)
	if err != nil {
		return Presentation{}, err
	}
	if _, err := r.Regenerate(ctx); err != nil {
		return Presentation{}, fmt.Errorf("%s: %w", op, err)
	}
	return present(courseID, r.State()), nil
}

// Stop ends the course's rotation loop. The last token stays redeemable until
// it expires.
func (p *Presenter) Stop(ctx context.Context, courseID string) error {
	p.mu.Lock()
	r, ok := p.rotators[courseID]
	delete(p.rotators, courseID)
	p.mu.Unlock()

	if !ok {
		return core.ErrNotPresenting
	}
	r.Stop()

	log.From(ctx).Info("presentation_stopped", slog.String("op", "service.Presenter.Stop"), slog.String("course_id", courseID))
	return nil
}

// StopAll ends every rotation loop
func (p *Presenter) StopAll() {
	p.mu.Lock()
	rotators := p.rotators
	p.rotators = make(map[string]*rotation.Rotator)
	p.mu.Unlock()

	for _, r := range rotators {
		r.Stop()
	}
}

func (p *Presenter) rotator(courseID string) (*rotation.Rotator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.rotators[courseID]
	if !ok {
		return nil, core.ErrNotPresenting
	}
	return r, nil
}

func present(courseID string, st rotation.State) Presentation {
	return Presentation{
		CourseID:  courseID,
		Token:     st.Token.Raw,
		IssuedAt:  st.Token.IssuedAtMillis,
		Remaining: st.Remaining,
		Seconds:   int64(st.Remaining / time.Second),
		Running:   st.Running,
	}
}
