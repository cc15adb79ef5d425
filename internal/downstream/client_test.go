package downstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/durationtrace/internal/trace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

func newCoordinator() *tracing.Coordinator {
	return tracing.New(tracing.Settings{
		Active:   true,
		MaxBytes: trace.DefaultMaxBytes,
		Merger:   trace.Settings{Variant: trace.VariantTrace},
	}, nil, nil)
}

func TestClientPropagatesSummary(t *testing.T) {
	var received atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Store(r.Header.Get("X-Duration"))
		w.Header().Set("X-Duration", "from-downstream")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	coordinator := newCoordinator()
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	client := NewClient(testConfig(), coordinator, nil, metrics)

	hop, ctx := coordinator.Begin(context.Background(), "http://svc/a", "from-caller")
	resp, err := client.Get(ctx, "b", server.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, "from-caller", received.Load())
	assert.Equal(t, "from-downstream", hop.Current())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DownstreamCalls.WithLabelValues("b", "200")))
}

func TestClientRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("X-Duration", "third")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	coordinator := newCoordinator()
	client := NewClient(testConfig(), coordinator, nil, nil)

	hop, ctx := coordinator.Begin(context.Background(), "http://svc/a", "")
	resp, err := client.Get(ctx, "flaky", server.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, "third", hop.Outbound())
}

func TestClientReturnsLastResponseAfterRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(), nil, nil, nil)
	resp, err := client.Get(context.Background(), "down", server.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClientConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	cfg := testConfig()
	cfg.RetryMax = 0
	client := NewClient(cfg, nil, nil, nil)

	_, err := client.Get(context.Background(), "gone", url)
	assert.Error(t, err)
}

func TestClientRateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	cfg := testConfig()
	cfg.RateLimit = 0.001
	client := NewClient(cfg, nil, nil, nil)

	// The single burst token goes to the first call.
	_, err := client.Get(context.Background(), "slow", server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, "slow", server.URL)
	assert.ErrorContains(t, err, "rate limit")
}
