package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLoadAndView(t *testing.T) {
	m := New()

	m.ObserveLoad("enrollments", 9, 15*time.Millisecond, nil)
	m.ObserveLoad("crimes", 0, 0, errors.New("boom"))
	m.ObserveView("enrollments", 3)
	m.ObserveView("enrollments", 0)
	m.ObserveAnswers("enrollments", 2)
	m.ObserveAnswers("enrollments", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceLoads.WithLabelValues("enrollments", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceLoads.WithLabelValues("crimes", "error")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.sourceRows.WithLabelValues("enrollments")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.views.WithLabelValues("enrollments")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emptyViews.WithLabelValues("enrollments")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.answers.WithLabelValues("enrollments")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLoad("x", 1, time.Second, nil)
		m.ObserveView("x", 0)
		m.ObserveAnswers("x", 1)
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/dashboards/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/dashboards/enrollments", "/dashboards/crimes", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/dashboards/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "minidash_http_requests_total")
}
