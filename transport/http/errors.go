package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/attendease/core"
)

var statusByReason = map[string]int{
	core.ReasonInvalidInput:      http.StatusBadRequest,
	core.ReasonMalformedToken:    http.StatusBadRequest,
	core.ReasonNoCourseSelected:  http.StatusBadRequest,
	core.ReasonCourseMismatch:    http.StatusConflict,
	core.ReasonNoActiveToken:     http.StatusConflict,
	core.ReasonSignatureMismatch: http.StatusUnprocessableEntity,
	core.ReasonExpired:           http.StatusUnprocessableEntity,
	core.ReasonUnauthenticated:   http.StatusUnauthorized,
	core.ReasonForbidden:         http.StatusForbidden,
	core.ReasonNotEnrolled:       http.StatusForbidden,
	core.ReasonCourseNotFound:    http.StatusNotFound,
	core.ReasonNotPresenting:     http.StatusNotFound,
}

// errorResponse maps err to a status code and body. Known errors carry their
// reason kind; anything else is reported as an internal error without detail.
// An empty message falls back to the error text.
func errorResponse(err error, message string) (int, gin.H) {
	kind := core.Reason(err)
	status, ok := statusByReason[kind]
	if !ok {
		return http.StatusInternalServerError, gin.H{"error": "internal error", "reason": core.ReasonInternal}
	}
	if message == "" {
		message = core.ErrorForReason(kind).Error()
	}
	return status, gin.H{"error": message, "reason": kind}
}

func writeError(c *gin.Context, err error, message string) {
	status, body := errorResponse(err, message)
	c.JSON(status, body)
}
