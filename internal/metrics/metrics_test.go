package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.CheckIn("accepted")
	m.CheckIn("accepted")
	m.CheckIn("expired")
	m.Verify("malformed_token")
	m.Request(http.MethodPost, "/api/checkin", http.StatusOK, 10*time.Millisecond)

	require.Equal(t, float64(2), testutil.ToFloat64(m.checkIns.WithLabelValues("accepted")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.checkIns.WithLabelValues("expired")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.verifies.WithLabelValues("malformed_token")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/checkin", "200")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.CheckIn("accepted")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.True(t, strings.Contains(body, `attendease_checkins_total{outcome="accepted"} 1`), body)
	require.Contains(t, body, "go_goroutines")
}
