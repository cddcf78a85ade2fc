package core

import "time"

// SessionContext is the input of a single token issuance
type SessionContext struct {
	CourseID       string // Course the token proves presence for
	IssuedAtMillis int64  // Epoch milliseconds supplied by the caller
	SharedSecret   string // Deployment secret, never part of the token
}

// Token is a signed, time-bound attendance proof
type Token struct {
	Raw            string // Wire form: <namespace>://<course>/<issuedAt>/<signature>
	CourseID       string
	IssuedAtMillis int64
	Signature      string // Lowercase hex digest
}

// IssuedAt returns the issuance time of the token
func (t Token) IssuedAt() time.Time {
	return time.UnixMilli(t.IssuedAtMillis)
}

// ExpiresAt returns the last instant at which the token is still accepted
func (t Token) ExpiresAt(window time.Duration) time.Time {
	return t.IssuedAt().Add(window)
}

// Redemption is the outcome of an accepted token
type Redemption struct {
	CourseID         string
	RedeemedAtMillis int64
}

// Role of an authenticated user
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Identity is the resolved caller of a request
type Identity struct {
	UserID string
	Role   Role
}

// CanPresent reports whether the identity may display codes for a course
func (i Identity) CanPresent() bool {
	return i.Role == RoleFaculty || i.Role == RoleAdmin
}
