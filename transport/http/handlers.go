package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/attendease/adapters/qrcode"
	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/internal/metrics"
	"github.com/layer-3/attendease/internal/pkg/log"
	"github.com/layer-3/attendease/service"
)

const (
	msgCheckInFailed = "check-in failed"
	msgVerifyFailed  = "verification failed"
	outcomeAccepted  = "accepted"

	minQRSize = 64
	maxQRSize = 1024
)

// AttendanceHandlers contains HTTP handlers for presentation and check-in
type AttendanceHandlers struct {
	svc       *service.AttendanceService
	presenter *service.Presenter
	metrics   *metrics.Metrics
}

// NewAttendanceHandlers creates new attendance handlers
func NewAttendanceHandlers(svc *service.AttendanceService, presenter *service.Presenter, m *metrics.Metrics) *AttendanceHandlers {
	return &AttendanceHandlers{
		svc:       svc,
		presenter: presenter,
		metrics:   m,
	}
}

type scanRequest struct {
	CourseID string `json:"course_id"`
	Token    string `json:"token" binding:"required"`
}

type recordResponse struct {
	ID         string      `json:"id"`
	CourseID   string      `json:"course_id"`
	StudentID  string      `json:"student_id"`
	RecordedAt int64       `json:"recorded_at"`
	Status     core.Status `json:"status"`
}

func toRecordResponse(r core.AttendanceRecord) recordResponse {
	return recordResponse{
		ID:         r.ID,
		CourseID:   r.CourseID,
		StudentID:  r.StudentID,
		RecordedAt: r.RecordedAtMillis,
		Status:     r.Status,
	}
}

type courseResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Faculty string `json:"faculty"`
}

// authorizeCourse guards the presenter and faculty routes of a course
func (h *AttendanceHandlers) authorizeCourse(c *gin.Context) (string, bool) {
	courseID := c.Param("id")
	id, ok := identityFrom(c)
	if !ok {
		abort(c, core.ErrUnauthenticated)
		return "", false
	}
	if err := h.svc.Authorize(c.Request.Context(), id, courseID); err != nil {
		h.fail(c, err, "")
		return "", false
	}
	return courseID, true
}

func (h *AttendanceHandlers) fail(c *gin.Context, err error, message string) {
	if core.Reason(err) == core.ReasonInternal {
		log.From(c.Request.Context()).Error("request_failed",
			slog.String("path", c.FullPath()),
			slog.String("err", err.Error()),
		)
	}
	writeError(c, err, message)
}

// Courses lists the known courses
func (h *AttendanceHandlers) Courses(c *gin.Context) {
	courses, err := h.svc.Courses(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}

	out := make([]courseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, courseResponse{ID: course.ID, Name: course.Name, Code: course.Code, Faculty: course.Faculty})
	}
	c.JSON(http.StatusOK, gin.H{"courses": out})
}

// StartPresentation starts the rotation loop of a course
func (h *AttendanceHandlers) StartPresentation(c *gin.Context) {
	courseID, ok := h.authorizeCourse(c)
	if !ok {
		return
	}

	p, err := h.presenter.Start(c.Request.Context(), courseID)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, p)
}

// CurrentPresentation returns the current token and countdown
func (h *AttendanceHandlers) CurrentPresentation(c *gin.Context) {
	courseID, ok := h.authorizeCourse(c)
	if !ok {
		return
	}

	p, err := h.presenter.Current(courseID)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, p)
}

// RegeneratePresentation reissues the token of a presented course
func (h *AttendanceHandlers) RegeneratePresentation(c *gin.Context) {
	courseID, ok := h.authorizeCourse(c)
	if !ok {
		return
	}

	p, err := h.presenter.Regenerate(c.Request.Context(), courseID)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, p)
}

// StopPresentation stops the rotation loop of a course
func (h *AttendanceHandlers) StopPresentation(c *gin.Context) {
	courseID, ok := h.authorizeCourse(c)
	if !ok {
		return
	}

	if err := h.presenter.Stop(c.Request.Context(), courseID); err != nil {
		h.fail(c, err, "")
		return
	}
	c.Status(http.StatusNoContent)
}

// PresentationQR renders the current token as a PNG QR code
func (h *AttendanceHandlers) PresentationQR(c *gin.Context) {
	courseID, ok := h.authorizeCourse(c)
	if !ok {
		return
	}

	size := qrcode.DefaultSize
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minQRSize || n > maxQRSize {
			writeError(c, core.ErrInvalidInput, "size must be between 64 and 1024")
			return
		}
		size = n
	}

	p, err := h.presenter.Current(courseID)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	png, err := qrcode.Render(p.Token, size)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// CheckIn records the caller's presence for a scanned token
func (h *AttendanceHandlers) CheckIn(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.CheckIn(core.ReasonMalformedToken)
		writeError(c, core.ErrMalformedToken, msgCheckInFailed)
		return
	}

	id, _ := identityFrom(c)
	rec, err := h.svc.CheckIn(c.Request.Context(), service.CheckInRequest{
		StudentID: id.UserID,
		CourseID:  req.CourseID,
		Token:     req.Token,
	})
	if err != nil {
		h.metrics.CheckIn(core.Reason(err))
		h.fail(c, err, msgCheckInFailed)
		return
	}
	h.metrics.CheckIn(outcomeAccepted)

	c.JSON(http.StatusOK, toRecordResponse(rec))
}

// Verify checks a scanned token without recording presence
func (h *AttendanceHandlers) Verify(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.Verify(core.ReasonMalformedToken)
		writeError(c, core.ErrMalformedToken, msgVerifyFailed)
		return
	}

	res, err := h.svc.Verify(c.Request.Context(), req.CourseID, req.Token)
	if err != nil {
		h.metrics.Verify(core.Reason(err))
		h.fail(c, err, msgVerifyFailed)
		return
	}
	h.metrics.Verify(outcomeAccepted)

	c.JSON(http.StatusOK, gin.H{
		"course_id":   res.CourseID,
		"redeemed_at": res.RedeemedAtMillis,
	})
}

// CourseAttendance lists the ledger entries of a course
func (h *AttendanceHandlers) CourseAttendance(c *gin.Context) {
	courseID, ok := h.authorizeCourse(c)
	if !ok {
		return
	}

	records, err := h.svc.CourseAttendance(c.Request.Context(), courseID)
	if err != nil {
		h.fail(c, err, "")
		return
	}

	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"course_id": courseID, "records": out})
}

// CourseStats reports the attendance rate of every course
func (h *AttendanceHandlers) CourseStats(c *gin.Context) {
	stats, err := h.svc.CourseStats(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": stats})
}

// InstitutionStats reports institution-wide attendance
func (h *AttendanceHandlers) InstitutionStats(c *gin.Context) {
	stats, err := h.svc.InstitutionStats(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MyStats reports the caller's own attendance
func (h *AttendanceHandlers) MyStats(c *gin.Context) {
	id, _ := identityFrom(c)
	stats, err := h.svc.StudentStats(c.Request.Context(), id.UserID)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}
