package monitoring

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/trace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Merge metrics
	Merges           *prometheus.CounterVec
	MalformedHeaders *prometheus.CounterVec
	EncodingFailures prometheus.Counter
	HeaderBytes      prometheus.Histogram
	TraceEntries     prometheus.Histogram
	Finalization     prometheus.Gauge

	// Downstream metrics
	DownstreamCalls    *prometheus.CounterVec
	DownstreamDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for the JSON health endpoint
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for JSON responses
type Snapshot struct {
	TotalRequests    int64   `json:"total_requests"`
	TotalErrors      int64   `json:"total_errors"`
	Merges           int64   `json:"merges"`
	Truncations      int64   `json:"truncations"`
	MalformedHeaders int64   `json:"malformed_headers"`
	TotalDuration    float64 `json:"-"`
	AvgDuration      float64 `json:"avg_duration_seconds"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hop_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hop_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Merge metrics
		Merges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hop_trace_merges_total",
				Help: "Total number of trace merges by outcome",
			},
			[]string{"outcome"},
		),
		MalformedHeaders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hop_trace_malformed_headers_total",
				Help: "Total number of unparsable duration headers",
			},
			[]string{"source"},
		),
		EncodingFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hop_trace_encoding_failures_total",
				Help: "Total number of summaries that could not be encoded",
			},
		),
		HeaderBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hop_trace_header_bytes",
				Help:    "Size of emitted duration headers in bytes",
				Buckets: prometheus.ExponentialBuckets(128, 2, 10),
			},
		),
		TraceEntries: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hop_trace_entries",
				Help:    "Number of entries in emitted traces",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
			},
		),
		Finalization: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hop_trace_finalization_seconds",
				Help: "Last measured merge finalization duration",
			},
		),

		// Downstream metrics
		DownstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hop_downstream_calls_total",
				Help: "Total number of downstream HTTP calls",
			},
			[]string{"route", "status"},
		),
		DownstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hop_downstream_duration_seconds",
				Help:    "Downstream HTTP call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"route"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "hop_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordMerge records a successful merge and the finalization estimate in use.
func (m *Metrics) RecordMerge(res trace.Result, finalization time.Duration) {
	outcome := "merged"
	switch {
	case res.Locked:
		outcome = "locked"
	case res.Truncated:
		outcome = "truncated"
	}
	m.Merges.WithLabelValues(outcome).Inc()
	m.HeaderBytes.Observe(float64(res.Bytes))
	m.TraceEntries.Observe(float64(res.Entries))
	m.Finalization.Set(finalization.Seconds())

	m.mu.Lock()
	m.snapshot.Merges++
	if res.Truncated {
		m.snapshot.Truncations++
	}
	m.mu.Unlock()
}

// RecordMalformed records a header that failed to decode.
func (m *Metrics) RecordMalformed(source string) {
	m.MalformedHeaders.WithLabelValues(source).Inc()

	m.mu.Lock()
	m.snapshot.MalformedHeaders++
	m.mu.Unlock()
}

// RecordEncodingFailure records a summary that could not be encoded.
func (m *Metrics) RecordEncodingFailure() {
	m.EncodingFailures.Inc()
}

// RecordDownstreamCall records one call to a downstream service
func (m *Metrics) RecordDownstreamCall(route, status string, duration time.Duration) {
	m.DownstreamCalls.WithLabelValues(route, status).Inc()
	m.DownstreamDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	if s.TotalRequests > 0 {
		s.AvgDuration = s.TotalDuration / float64(s.TotalRequests)
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
