// Package ledger holds in-memory implementations of the attendance ledger
// and course directory, used in local mode and in tests.
package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/ports"
)

var (
	_ ports.Ledger          = (*MemoryLedger)(nil)
	_ ports.CourseDirectory = (*MemoryCourses)(nil)
)

type recordKey struct {
	courseID  string
	studentID string
	at        int64
}

// MemoryLedger keeps attendance records in memory
type MemoryLedger struct {
	mu      sync.RWMutex
	records []core.AttendanceRecord
	seen    map[recordKey]struct{}
}

// NewMemoryLedger creates an empty ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[recordKey]struct{})}
}

// RecordPresence appends rec unless its tuple is already present
func (l *MemoryLedger) RecordPresence(ctx context.Context, rec core.AttendanceRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := recordKey{rec.CourseID, rec.StudentID, rec.RecordedAtMillis}
	if _, dup := l.seen[k]; dup {
		return false, nil
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = core.StatusPresent
	}
	l.seen[k] = struct{}{}
	l.records = append(l.records, rec)
	return true, nil
}

// ListByCourse returns a course's records ordered by time
func (l *MemoryLedger) ListByCourse(ctx context.Context, courseID string) ([]core.AttendanceRecord, error) {
	return l.filter(func(r core.AttendanceRecord) bool { return r.CourseID == courseID }), nil
}

// ListByStudent returns a student's records ordered by time
func (l *MemoryLedger) ListByStudent(ctx context.Context, studentID string) ([]core.AttendanceRecord, error) {
	return l.filter(func(r core.AttendanceRecord) bool { return r.StudentID == studentID }), nil
}

func (l *MemoryLedger) filter(keep func(core.AttendanceRecord) bool) []core.AttendanceRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []core.AttendanceRecord
	for _, r := range l.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAtMillis < out[j].RecordedAtMillis })
	return out
}

// MemoryCourses is a fixed course directory
type MemoryCourses struct {
	mu      sync.RWMutex
	courses map[string]core.Course
}

// NewMemoryCourses creates a directory holding courses
func NewMemoryCourses(courses ...core.Course) *MemoryCourses {
	m := &MemoryCourses{courses: make(map[string]core.Course, len(courses))}
	for _, c := range courses {
		m.courses[c.ID] = c
	}
	return m
}

// Upsert adds or replaces a course
func (m *MemoryCourses) Upsert(ctx context.Context, c core.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return nil
}

// FindByID returns the course or nil
func (m *MemoryCourses) FindByID(ctx context.Context, id string) (*core.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.courses[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// List returns all courses ordered by id
func (m *MemoryCourses) List(ctx context.Context) ([]core.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
