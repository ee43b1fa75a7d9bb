package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	switch {
	case pb.Counter != nil:
		return pb.GetCounter().GetValue()
	case pb.Gauge != nil:
		return pb.GetGauge().GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestObserveVerification(t *testing.T) {
	m := New()

	m.ObserveVerification("VERIFIED", false)
	m.ObserveVerification("VERIFIED", true)
	m.ObserveVerification("BLOCKED", false)

	assert.Equal(t, 2.0, value(t, m.verificationsTotal.WithLabelValues("VERIFIED")))
	assert.Equal(t, 1.0, value(t, m.verificationsTotal.WithLabelValues("BLOCKED")))
	assert.Equal(t, 1.0, value(t, m.failOpenTotal))
}

func TestPendingReviewsAndJobs(t *testing.T) {
	m := New()

	m.SetPendingReviews(12)
	m.ObserveJob("document_reviewed", nil, time.Millisecond)
	m.ObserveJob("document_reviewed", errors.New("smtp down"), time.Millisecond)

	assert.Equal(t, 12.0, value(t, m.pendingReviews))
	assert.Equal(t, 1.0, value(t, m.jobsTotal.WithLabelValues("document_reviewed", "success")))
	assert.Equal(t, 1.0, value(t, m.jobsTotal.WithLabelValues("document_reviewed", "failure")))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/projects/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects/abc", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, value(t, m.requestTotal.WithLabelValues("GET", "/api/v1/projects/:id", "204")))
	assert.Equal(t, 0.0, value(t, m.requestInFlight))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "chantier_http_requests_total"))
}
