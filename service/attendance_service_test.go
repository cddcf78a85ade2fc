package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/layer-3/attendease/adapters/ledger"
	"github.com/layer-3/attendease/adapters/store"
	"github.com/layer-3/attendease/adapters/tokenizer"
	"github.com/layer-3/attendease/core"
	"github.com/stretchr/testify/require"
)

const testSecret = "k"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu       sync.Mutex
	issued   []core.Token
	checkIns []core.AttendanceRecord
	err      error
}

func (p *recordingPublisher) PublishTokenIssued(_ context.Context, token core.Token) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued = append(p.issued, token)
	return p.err
}

func (p *recordingPublisher) PublishCheckIn(_ context.Context, rec core.AttendanceRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkIns = append(p.checkIns, rec)
	return p.err
}

type fixture struct {
	svc     *AttendanceService
	clock   *clock
	store   *store.MemoryStore
	ledger  *ledger.MemoryLedger
	courses *ledger.MemoryCourses
	events  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{now: time.UnixMilli(1700000000000)}
	f := &fixture{
		clock:  c,
		store:  store.NewMemoryStore().WithClock(c.Now),
		ledger: ledger.NewMemoryLedger(),
		courses: ledger.NewMemoryCourses(
			core.Course{ID: "cs101", Name: "Intro to CS", Code: "CS101", Faculty: "f1", StudentIDs: []string{"s1", "s2"}},
			core.Course{ID: "ma201", Name: "Linear Algebra", Code: "MA201", Faculty: "f2", StudentIDs: []string{"s1"}},
			core.Course{ID: "open1", Name: "Open Seminar", Code: "OS1", Faculty: "f1"},
		),
		events: &recordingPublisher{},
	}
	f.svc = NewAttendanceService(
		tokenizer.NewDigestTokenizer(),
		f.store, f.ledger, f.courses, f.events,
		testSecret,
		WithClock(c.Now),
	)
	return f
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.svc.IssueToken(ctx, "cs101")
	require.NoError(t, err)
	require.Equal(t, "cs101", tok.CourseID)
	require.Equal(t, int64(1700000000000), tok.IssuedAtMillis)

	active, err := f.svc.ActiveToken(ctx, "cs101")
	require.NoError(t, err)
	require.Equal(t, tok, active)
	require.Len(t, f.events.issued, 1)

	_, err = f.svc.IssueToken(ctx, "nope")
	require.ErrorIs(t, err, core.ErrCourseNotFound)

	_, err = f.svc.IssueToken(ctx, "")
	require.ErrorIs(t, err, core.ErrNoCourseSelected)
}

func TestIssueToken_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	_, err := f.svc.IssueToken(context.Background(), "cs101")
	require.NoError(t, err)
}

func TestCheckIn_Accepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.svc.IssueToken(ctx, "cs101")
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	rec, err := f.svc.CheckIn(ctx, CheckInRequest{StudentID: "s1", CourseID: "cs101", Token: tok.Raw})
	require.NoError(t, err)
	require.Equal(t, core.StatusPresent, rec.Status)
	require.Equal(t, int64(1700000010000), rec.RecordedAtMillis)

	records, err := f.svc.CourseAttendance(ctx, "cs101")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "s1", records[0].StudentID)
	require.Len(t, f.events.checkIns, 1)
}

func TestCheckIn_DuplicateDoesNotDoubleCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.svc.IssueToken(ctx, "cs101")
	require.NoError(t, err)

	req := CheckInRequest{StudentID: "s1", CourseID: "cs101", Token: tok.Raw}
	_, err = f.svc.CheckIn(ctx, req)
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, req)
	require.NoError(t, err)

	records, err := f.svc.CourseAttendance(ctx, "cs101")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, f.events.checkIns, 1)
}

func TestCheckIn_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.svc.IssueToken(ctx, "cs101")
	require.NoError(t, err)
	other, err := f.svc.IssueToken(ctx, "ma201")
	require.NoError(t, err)

	cases := []struct {
		name string
		req  CheckInRequest
		want error
	}{
		{"no student", CheckInRequest{CourseID: "cs101", Token: tok.Raw}, core.ErrUnauthenticated},
		{"no course", CheckInRequest{StudentID: "s1", Token: tok.Raw}, core.ErrNoCourseSelected},
		{"unknown course", CheckInRequest{StudentID: "s1", CourseID: "zz", Token: tok.Raw}, core.ErrCourseNotFound},
		{"not enrolled", CheckInRequest{StudentID: "s9", CourseID: "cs101", Token: tok.Raw}, core.ErrNotEnrolled},
		{"no active code", CheckInRequest{StudentID: "s1", CourseID: "open1", Token: tok.Raw}, core.ErrNoActiveToken},
		{"malformed", CheckInRequest{StudentID: "s1", CourseID: "cs101", Token: "not-a-real-token"}, core.ErrMalformedToken},
		{"wrong course", CheckInRequest{StudentID: "s1", CourseID: "cs101", Token: other.Raw}, core.ErrCourseMismatch},
		{"forged", CheckInRequest{StudentID: "s1", CourseID: "cs101", Token: tok.Raw[:len(tok.Raw)-64] + tokenizer.Sign("cs101", tok.IssuedAtMillis, "guess")}, core.ErrSignatureMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CheckIn(ctx, tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}

	records, err := f.svc.CourseAttendance(ctx, "cs101")
	require.NoError(t, err)
	require.Empty(t, records)
	require.Empty(t, f.events.checkIns)
}

func TestCheckIn_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.IssueToken(ctx, "cs101")
	require.NoError(t, err)

	f.clock.Advance(60 * time.Second)
	_, err = f.svc.IssueToken(ctx, "cs101")
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	_, err = f.svc.CheckIn(ctx, CheckInRequest{StudentID: "s1", CourseID: "cs101", Token: first.Raw})
	require.ErrorIs(t, err, core.ErrExpired)
	require.True(t, core.IsRejection(err))
}

func TestCheckIn_ActiveTokenExpiresFromRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.svc.IssueToken(ctx, "cs101")
	require.NoError(t, err)

	f.clock.Advance(61 * time.Second)
	_, err = f.svc.CheckIn(ctx, CheckInRequest{StudentID: "s1", CourseID: "cs101", Token: tok.Raw})
	require.ErrorIs(t, err, core.ErrNoActiveToken)
}

func TestReset_ClearsRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.IssueToken(ctx, "cs101")
	require.NoError(t, err)
	require.NoError(t, f.svc.Reset(ctx))

	_, err = f.svc.ActiveToken(ctx, "cs101")
	require.ErrorIs(t, err, core.ErrNoActiveToken)
}

func TestVerify_DoesNotRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.svc.IssueToken(ctx, "cs101")
	require.NoError(t, err)

	res, err := f.svc.Verify(ctx, "cs101", tok.Raw)
	require.NoError(t, err)
	require.Equal(t, "cs101", res.CourseID)

	records, err := f.svc.CourseAttendance(ctx, "cs101")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Authorize(ctx, core.Identity{UserID: "a", Role: core.RoleAdmin}, "ma201"))
	require.NoError(t, f.svc.Authorize(ctx, core.Identity{UserID: "f1", Role: core.RoleFaculty}, "cs101"))
	require.ErrorIs(t, f.svc.Authorize(ctx, core.Identity{UserID: "f1", Role: core.RoleFaculty}, "ma201"), core.ErrForbidden)
	require.ErrorIs(t, f.svc.Authorize(ctx, core.Identity{UserID: "s1", Role: core.RoleStudent}, "cs101"), core.ErrForbidden)
	require.ErrorIs(t, f.svc.Authorize(ctx, core.Identity{UserID: "a", Role: core.RoleAdmin}, "zz"), core.ErrCourseNotFound)
}
