package attendease

import (
	"errors"
	"fmt"

	"github.com/layer-3/attendease/core"
)

// ErrUnexpectedResponse is returned when the service answers with a body
// the client cannot decode
var ErrUnexpectedResponse = errors.New("unexpected response")

// APIError is a failure reported by the service. It unwraps to the matching
// core error, so callers can use errors.Is(err, core.ErrExpired).
type APIError struct {
	Status  int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("attendease: %s (%s, status %d)", e.Message, e.Reason, e.Status)
}

func (e *APIError) Unwrap() error {
	return core.ErrorForReason(e.Reason)
}

// Rejected reports whether the user can fix err by scanning a fresh code
func Rejected(err error) bool {
	return core.IsRejection(err)
}
