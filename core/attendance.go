package core

import "time"

// Status of a student for a course
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Course as seen by the check-in flow
type Course struct {
	ID         string
	Name       string
	Code       string
	Faculty    string
	StudentIDs []string // Enrolled students; empty means open enrollment
}

// Enrolled reports whether studentID may check into the course.
func (c Course) Enrolled(studentID string) bool {
	if len(c.StudentIDs) == 0 {
		return true
	}
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// AttendanceRecord is one presence event in the ledger
type AttendanceRecord struct {
	ID               string
	CourseID         string
	StudentID        string
	RecordedAtMillis int64
	Status           Status
}

// RecordedAt returns the redemption time of the record
func (r AttendanceRecord) RecordedAt() time.Time {
	return time.UnixMilli(r.RecordedAtMillis)
}

// StudentStats summarizes one student's attendance across enrolled courses
type StudentStats struct {
	StudentID  string `json:"student_id"`
	Attended   int    `json:"attended"`
	Total      int    `json:"total"`
	Percentage int64  `json:"percentage"`
}

// CourseStats summarizes attendance for a course
type CourseStats struct {
	CourseID       string `json:"course_id"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	Present        int    `json:"present"`
	Enrolled       int    `json:"enrolled"`
	AttendanceRate int64  `json:"attendance_rate"`
}

// InstitutionStats summarizes attendance across all courses
type InstitutionStats struct {
	TotalStudents     int   `json:"total_students"`
	AverageAttendance int64 `json:"average_attendance"`
}
