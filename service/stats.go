package service

import (
	"context"
	"fmt"

	"github.com/layer-3/attendease/core"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// percent returns part/whole as a whole-number percentage, rounded half up.
// A zero whole yields 0.
func percent(part, whole int) int64 {
	if whole <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(whole))).
		Round(0).
		IntPart()
}

// StudentStats counts the courses a student is enrolled in and how many of
// them the student has been present for at least once. Open-enrollment
// courses count once the student has a record there.
func (s *AttendanceService) StudentStats(ctx context.Context, studentID string) (core.StudentStats, error) {
	const op = "service.AttendanceService.StudentStats"

	courses, err := s.courses.List(ctx)
	if err != nil {
		return core.StudentStats{}, fmt.Errorf("%s: %w", op, err)
	}
	records, err := s.ledger.ListByStudent(ctx, studentID)
	if err != nil {
		return core.StudentStats{}, fmt.Errorf("%s: %w", op, err)
	}

	present := make(map[string]bool)
	for _, r := range records {
		if r.Status == core.StatusPresent {
			present[r.CourseID] = true
		}
	}

	stats := core.StudentStats{StudentID: studentID}
	for _, c := range courses {
		if len(c.StudentIDs) == 0 && !present[c.ID] {
			continue
		}
		if !c.Enrolled(studentID) {
			continue
		}
		stats.Total++
		if present[c.ID] {
			stats.Attended++
		}
	}
	stats.Percentage = percent(stats.Attended, stats.Total)
	return stats, nil
}

// CourseStats reports, per course, how many distinct students were present
// against the size of the roster. Courses without a roster are measured
// against the students seen in the ledger.
func (s *AttendanceService) CourseStats(ctx context.Context) ([]core.CourseStats, error) {
	const op = "service.AttendanceService.CourseStats"

	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]core.CourseStats, 0, len(courses))
	for _, c := range courses {
		records, err := s.ledger.ListByCourse(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		seen := make(map[string]bool)
		present := make(map[string]bool)
		for _, r := range records {
			seen[r.StudentID] = true
			if r.Status == core.StatusPresent && c.Enrolled(r.StudentID) {
				present[r.StudentID] = true
			}
		}

		enrolled := len(c.StudentIDs)
		if enrolled == 0 {
			enrolled = len(seen)
		}

		out = append(out, core.CourseStats{
			CourseID:       c.ID,
			Name:           c.Name,
			Code:           c.Code,
			Present:        len(present),
			Enrolled:       enrolled,
			AttendanceRate: percent(len(present), enrolled),
		})
	}
	return out, nil
}

// InstitutionStats averages the course attendance rates and counts distinct
// students across rosters and the ledger.
func (s *AttendanceService) InstitutionStats(ctx context.Context) (core.InstitutionStats, error) {
	const op = "service.AttendanceService.InstitutionStats"

	perCourse, err := s.CourseStats(ctx)
	if err != nil {
		return core.InstitutionStats{}, fmt.Errorf("%s: %w", op, err)
	}
	courses, err := s.courses.List(ctx)
	if err != nil {
		return core.InstitutionStats{}, fmt.Errorf("%s: %w", op, err)
	}

	students := make(map[string]struct{})
	for _, c := range courses {
		for _, id := range c.StudentIDs {
			students[id] = struct{}{}
		}
		records, err := s.ledger.ListByCourse(ctx, c.ID)
		if err != nil {
			return core.InstitutionStats{}, fmt.Errorf("%s: %w", op, err)
		}
		for _, r := range records {
			students[r.StudentID] = struct{}{}
		}
	}

	stats := core.InstitutionStats{TotalStudents: len(students)}
	if len(perCourse) == 0 {
		return stats, nil
	}

	sum := decimal.Zero
	for _, c := range perCourse {
		sum = sum.Add(decimal.NewFromInt(c.AttendanceRate))
	}
	stats.AverageAttendance = sum.Div(decimal.NewFromInt(int64(len(perCourse)))).Round(0).IntPart()
	return stats, nil
}
