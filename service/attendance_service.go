package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/internal/pkg/log"
	"github.com/layer-3/attendease/ports"
)

// AttendanceService handles token issuance and check-in business logic
type AttendanceService struct {
	tokenizer ports.Tokenizer
	store     ports.ActiveTokenStore
	ledger    ports.Ledger
	courses   ports.CourseDirectory
	eventPub  ports.EventPublisher

	secret string
	window time.Duration
	now    func() time.Time
}

// Option configures an AttendanceService
type Option func(*AttendanceService)

// WithClock overrides the service clock
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceService) { s.now = now }
}

// WithValidityWindow sets the lifetime of an active token in the store.
// It should match the tokenizer's window.
func WithValidityWindow(d time.Duration) Option {
	return func(s *AttendanceService) { s.window = d }
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	tokenizer ports.Tokenizer,
	store ports.ActiveTokenStore,
	ledger ports.Ledger,
	courses ports.CourseDirectory,
	eventPub ports.EventPublisher,
	secret string,
	opts ...Option,
) *AttendanceService {
	s := &AttendanceService{
		tokenizer: tokenizer,
		store:     store,
		ledger:    ledger,
		courses:   courses,
		eventPub:  eventPub,
		secret:    secret,
		window:    60 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the validity window of issued tokens
func (s *AttendanceService) Window() time.Duration { return s.window }

// Now returns the service clock reading
func (s *AttendanceService) Now() time.Time { return s.now() }

// Reset clears the active-token registry. Called once at process start.
func (s *AttendanceService) Reset(ctx context.Context) error {
	const op = "service.AttendanceService.Reset"

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IssueToken issues a token for the course stamped with the current time
func (s *AttendanceService) IssueToken(ctx context.Context, courseID string) (core.Token, error) {
	return s.IssueTokenAt(ctx, courseID, s.now())
}

// IssueTokenAt issues a token for the course stamped at now and makes it the
// course's active token.
func (s *AttendanceService) IssueTokenAt(ctx context.Context, courseID string, now time.Time) (core.Token, error) {
	const op = "service.AttendanceService.IssueToken"
	logger := log.From(ctx).With(slog.String("op", op), slog.String("course_id", courseID))

	if _, err := s.course(ctx, courseID); err != nil {
		return core.Token{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokenizer.Issue(core.SessionContext{
		CourseID:       courseID,
		IssuedAtMillis: now.UnixMilli(),
		SharedSecret:   s.secret,
	})
	if err != nil {
		return core.Token{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Put(ctx, token, s.window); err != nil {
		return core.Token{}, fmt.Errorf("%s: store active token: %w", op, err)
	}

	if err := s.eventPub.PublishTokenIssued(ctx, token); err != nil {
		// The token is already active, which is what check-ins depend on
		logger.Warn("publish_token_issued_failed", slog.String("err", err.Error()))
	}

	logger.Debug("token_issued", slog.Int64("issued_at", token.IssuedAtMillis))
	return token, nil
}

// ActiveToken returns the course's active token, or ErrNoActiveToken
func (s *AttendanceService) ActiveToken(ctx context.Context, courseID string) (core.Token, error) {
	const op = "service.AttendanceService.ActiveToken"

	token, err := s.store.Get(ctx, courseID)
	if err != nil {
		return core.Token{}, fmt.Errorf("%s: %w", op, err)
	}
	if token == nil {
		return core.Token{}, core.ErrNoActiveToken
	}
	return *token, nil
}

// CheckInRequest is a student's attempt to prove presence
type CheckInRequest struct {
	StudentID string
	CourseID  string
	Token     string
}

// CheckIn redeems the scanned token on behalf of the student and records
// presence. Rejections never write to the ledger.
func (s *AttendanceService) CheckIn(ctx context.Context, req CheckInRequest) (core.AttendanceRecord, error) {
	const op = "service.AttendanceService.CheckIn"
	logger := log.From(ctx).With(
		slog.String("op", op),
		slog.String("course_id", req.CourseID),
		slog.String("student_id", req.StudentID),
	)

	if req.StudentID == "" {
		return core.AttendanceRecord{}, core.ErrUnauthenticated
	}

	redemption, err := s.redeem(ctx, req.CourseID, req.Token, func(c *core.Course) error {
		if !c.Enrolled(req.StudentID) {
			return core.ErrNotEnrolled
		}
		return nil
	})
	if err != nil {
		logger.Info("check_in_rejected", slog.String("reason", core.Reason(err)))
		return core.AttendanceRecord{}, err
	}

	rec := core.AttendanceRecord{
		CourseID:         redemption.CourseID,
		StudentID:        req.StudentID,
		RecordedAtMillis: redemption.RedeemedAtMillis,
		Status:           core.StatusPresent,
	}
	created, err := s.ledger.RecordPresence(ctx, rec)
	if err != nil {
		logger.Error("record_presence_failed", slog.String("err", err.Error()))
		return core.AttendanceRecord{}, fmt.Errorf("%s: record presence: %w", op, err)
	}

	if created {
		if err := s.eventPub.PublishCheckIn(ctx, rec); err != nil {
			logger.Warn("publish_check_in_failed", slog.String("err", err.Error()))
		}
	}

	logger.Info("checked_in", slog.Bool("created", created))
	return rec, nil
}

// Verify redeems the token for the course without recording anything
func (s *AttendanceService) Verify(ctx context.Context, courseID, token string) (*core.Redemption, error) {
	return s.redeem(ctx, courseID, token, nil)
}

func (s *AttendanceService) redeem(ctx context.Context, courseID, raw string, admit func(*core.Course) error) (*core.Redemption, error) {
	const op = "service.AttendanceService.redeem"

	if courseID == "" {
		return nil, core.ErrNoCourseSelected
	}

	c, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if admit != nil {
		if err := admit(c); err != nil {
			return nil, err
		}
	}

	active, err := s.store.Get(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: active token: %w", op, err)
	}
	if active == nil {
		return nil, core.ErrNoActiveToken
	}

	return s.tokenizer.Redeem(raw, courseID, s.secret, s.now().UnixMilli())
}

func (s *AttendanceService) course(ctx context.Context, courseID string) (*core.Course, error) {
	const op = "service.AttendanceService.course"

	if courseID == "" {
		return nil, core.ErrNoCourseSelected
	}
	c, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c == nil {
		return nil, core.ErrCourseNotFound
	}
	return c, nil
}

// Authorize checks that the identity may present and inspect the course.
// Admins manage every course, faculty the courses they teach.
func (s *AttendanceService) Authorize(ctx context.Context, id core.Identity, courseID string) error {
	c, err := s.course(ctx, courseID)
	if err != nil {
		return err
	}

	switch {
	case id.Role == core.RoleAdmin:
		return nil
	case id.Role == core.RoleFaculty && (c.Faculty == "" || c.Faculty == id.UserID):
		return nil
	default:
		return core.ErrForbidden
	}
}

// Courses lists every known course
func (s *AttendanceService) Courses(ctx context.Context) ([]core.Course, error) {
	const op = "service.AttendanceService.Courses"

	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return courses, nil
}

// CourseAttendance lists the ledger entries of a course
func (s *AttendanceService) CourseAttendance(ctx context.Context, courseID string) ([]core.AttendanceRecord, error) {
	const op = "service.AttendanceService.CourseAttendance"

	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}
	records, err := s.ledger.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}
