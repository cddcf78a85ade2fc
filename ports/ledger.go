package ports

import (
	"context"

	"github.com/layer-3/attendease/core"
)

// Ledger records presence events
type Ledger interface {
	// RecordPresence stores the record. Duplicate (course, student, time)
	// tuples are ignored and reported with created=false.
	RecordPresence(ctx context.Context, rec core.AttendanceRecord) (created bool, err error)
	ListByCourse(ctx context.Context, courseID string) ([]core.AttendanceRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]core.AttendanceRecord, error)
}

// CourseDirectory resolves course identifiers
type CourseDirectory interface {
	// FindByID returns nil when the course does not exist
	FindByID(ctx context.Context, id string) (*core.Course, error)
	List(ctx context.Context) ([]core.Course, error)
}
