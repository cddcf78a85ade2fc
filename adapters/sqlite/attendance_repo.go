package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/ports"
)

var _ ports.Ledger = (*AttendanceRepository)(nil)

// AttendanceRepository is the SQLite attendance ledger.
type AttendanceRepository struct {
	db *sql.DB
}

func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// RecordPresence inserts the record unless the same (course, student, time)
// tuple is already stored.
func (r *AttendanceRepository) RecordPresence(ctx context.Context, rec core.AttendanceRecord) (bool, error) {
	const q = `
		INSERT INTO attendance (id, course_id, student_id, recorded_at, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (course_id, student_id, recorded_at) DO NOTHING
	`
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = core.StatusPresent
	}

	res, err := r.db.ExecContext(ctx, q, rec.ID, rec.CourseID, rec.StudentID, rec.RecordedAtMillis, string(rec.Status))
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListByCourse returns a course's records ordered by time.
func (r *AttendanceRepository) ListByCourse(ctx context.Context, courseID string) ([]core.AttendanceRecord, error) {
	const q = `
		SELECT id, course_id, student_id, recorded_at, status
		FROM attendance
		WHERE course_id = ?
		ORDER BY recorded_at, student_id
	`
	return r.list(ctx, q, courseID)
}

// ListByStudent returns a student's records ordered by time.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]core.AttendanceRecord, error) {
	const q = `
		SELECT id, course_id, student_id, recorded_at, status
		FROM attendance
		WHERE student_id = ?
		ORDER BY recorded_at, course_id
	`
	return r.list(ctx, q, studentID)
}

func (r *AttendanceRepository) list(ctx context.Context, q string, arg string) ([]core.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var out []core.AttendanceRecord
	for rows.Next() {
		var rec core.AttendanceRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.CourseID, &rec.StudentID, &rec.RecordedAtMillis, &status); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.Status = core.Status(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return out, nil
}
