// Package attendease is the Go client of the attendance service, used by
// scanner devices and presenter screens.
package attendease

import "context"

// Client represents the public interface for interacting with the attendance service
type Client interface {
	// CheckIn redeems a scanned token for the authenticated student
	CheckIn(ctx context.Context, courseID, token string) (Record, error)

	// Verify checks a scanned token without recording presence
	Verify(ctx context.Context, courseID, token string) (Verification, error)

	// StartPresentation starts rotating codes for a course
	StartPresentation(ctx context.Context, courseID string) (Presentation, error)

	// Presentation returns the code currently shown for a course
	Presentation(ctx context.Context, courseID string) (Presentation, error)

	// Regenerate replaces the current code immediately
	Regenerate(ctx context.Context, courseID string) (Presentation, error)

	// StopPresentation stops rotating codes for a course
	StopPresentation(ctx context.Context, courseID string) error
}

// Record is an attendance ledger entry
type Record struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	StudentID  string `json:"student_id"`
	RecordedAt int64  `json:"recorded_at"`
	Status     string `json:"status"`
}

// Verification is an accepted token
type Verification struct {
	CourseID   string `json:"course_id"`
	RedeemedAt int64  `json:"redeemed_at"`
}

// Presentation is the state of a presenting screen
type Presentation struct {
	CourseID         string `json:"course_id"`
	Token            string `json:"token"`
	IssuedAt         int64  `json:"issued_at"`
	SecondsRemaining int64  `json:"seconds_remaining"`
	Running          bool   `json:"running"`
}
