package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/ports"
)

var _ ports.CourseDirectory = (*CourseRepository)(nil)

// CourseRepository handles course and enrollment persistence.
type CourseRepository struct {
	db *sql.DB
}

func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Upsert stores a course and replaces its roster.
func (r *CourseRepository) Upsert(ctx context.Context, c core.Course) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO courses (id, name, code, faculty)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, code = excluded.code, faculty = excluded.faculty
	`
	if _, err := tx.ExecContext(ctx, upsert, c.ID, c.Name, c.Code, c.Faculty); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE course_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear enrollments: %w", err)
	}
	for _, sid := range c.StudentIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO enrollments (course_id, student_id) VALUES (?, ?)`, c.ID, sid); err != nil {
			return fmt.Errorf("insert enrollment: %w", err)
		}
	}

	return tx.Commit()
}

// FindByID returns a course with its roster, or nil when missing.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*core.Course, error) {
	const q = `
		SELECT id, name, code, faculty
		FROM courses
		WHERE id = ?
		LIMIT 1
	`
	var c core.Course
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Code, &c.Faculty); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan course: %w", err)
	}

	students, err := r.roster(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.StudentIDs = students
	return &c, nil
}

// List returns all courses ordered by id.
func (r *CourseRepository) List(ctx context.Context) ([]core.Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, code, faculty FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}

	var out []core.Course
	for rows.Next() {
		var c core.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Faculty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	rows.Close()

	// Rosters are read after the cursor is released; :memory: runs on one connection.
	for i := range out {
		students, err := r.roster(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].StudentIDs = students
	}
	return out, nil
}

func (r *CourseRepository) roster(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT student_id FROM enrollments WHERE course_id = ? ORDER BY student_id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
