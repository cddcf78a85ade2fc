package core

import "errors"

var (
	// Issuance
	ErrInvalidInput = errors.New("invalid input")

	// Redemption
	ErrMalformedToken    = errors.New("malformed token")
	ErrCourseMismatch    = errors.New("token was issued for a different course")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrExpired           = errors.New("token has expired")

	// Check-in orchestration
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNoCourseSelected = errors.New("no course selected")
	ErrCourseNotFound   = errors.New("course not found")
	ErrNoActiveToken    = errors.New("no active code for this course")
	ErrNotEnrolled      = errors.New("student is not enrolled in this course")
	ErrForbidden        = errors.New("forbidden")
	ErrNotPresenting    = errors.New("course is not being presented")
)

// Reason kinds reported to clients alongside a rejected check-in.
const (
	ReasonInvalidInput      = "invalid_input"
	ReasonMalformedToken    = "malformed_token"
	ReasonCourseMismatch    = "course_mismatch"
	ReasonSignatureMismatch = "signature_mismatch"
	ReasonExpired           = "expired"
	ReasonUnauthenticated   = "unauthenticated"
	ReasonNoCourseSelected  = "no_course_selected"
	ReasonCourseNotFound    = "course_not_found"
	ReasonNoActiveToken     = "no_active_token"
	ReasonNotEnrolled       = "not_enrolled"
	ReasonForbidden         = "forbidden"
	ReasonNotPresenting     = "not_presenting"
	ReasonInternal          = "internal"
)

var reasons = []struct {
	err  error
	kind string
}{
	{ErrInvalidInput, ReasonInvalidInput},
	{ErrMalformedToken, ReasonMalformedToken},
	{ErrCourseMismatch, ReasonCourseMismatch},
	{ErrSignatureMismatch, ReasonSignatureMismatch},
	{ErrExpired, ReasonExpired},
	{ErrUnauthenticated, ReasonUnauthenticated},
	{ErrNoCourseSelected, ReasonNoCourseSelected},
	{ErrCourseNotFound, ReasonCourseNotFound},
	{ErrNoActiveToken, ReasonNoActiveToken},
	{ErrNotEnrolled, ReasonNotEnrolled},
	{ErrForbidden, ReasonForbidden},
	{ErrNotPresenting, ReasonNotPresenting},
}

// Reason returns the machine-readable kind of err, or ReasonInternal when
// err is not one of the package's sentinel errors.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.kind
		}
	}
	return ReasonInternal
}

// ErrorForReason is the inverse of Reason. It returns nil for unknown kinds.
func ErrorForReason(kind string) error {
	for _, r := range reasons {
		if r.kind == kind {
			return r.err
		}
	}
	return nil
}

// IsRejection reports whether err is a redemption-side rejection the user can
// recover from by scanning a fresh code.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrCourseMismatch) ||
		errors.Is(err, ErrSignatureMismatch) ||
		errors.Is(err, ErrExpired)
}
