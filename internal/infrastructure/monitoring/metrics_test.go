package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/trace"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMergeOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordMerge(trace.Result{Bytes: 120, Entries: 1}, time.Millisecond)
	m.RecordMerge(trace.Result{Bytes: 900, Entries: 4, Truncated: true}, 2*time.Millisecond)
	m.RecordMerge(trace.Result{Bytes: 900, Entries: 4, Truncated: true, Locked: true}, 3*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Merges.WithLabelValues("merged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Merges.WithLabelValues("truncated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Merges.WithLabelValues("locked")))
	assert.InDelta(t, 0.003, testutil.ToFloat64(m.Finalization), 1e-9)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Merges)
	assert.Equal(t, int64(2), snap.Truncations)
}

func TestRecordMalformed(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordMalformed("inbound")
	m.RecordMalformed("inbound")
	m.RecordMalformed("outbound")
	m.RecordEncodingFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MalformedHeaders.WithLabelValues("inbound")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MalformedHeaders.WithLabelValues("outbound")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EncodingFailures))
	assert.Equal(t, int64(3), m.Snapshot().MalformedHeaders)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestTimer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	NewTimer(m, "checkout").Stop("200")
	NewTimer(nil, "checkout").Stop("200")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DownstreamCalls.WithLabelValues("checkout", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["hop_uptime_seconds"])
	assert.True(t, names["hop_downstream_duration_seconds"])
}
