package downstream

import (
	"context"
	"net"
	"net/http"
	"testing"

	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/durationtrace/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// startHealthServer runs a traced gRPC health service on a loopback port.
func startHealthServer(t *testing.T) (string, *health.Server) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	coordinator := newCoordinator()
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(tracing.UnaryServerInterceptor(coordinator)),
		grpc.ChainStreamInterceptor(tracing.StreamServerInterceptor(coordinator)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String(), hs
}

func TestClientHealthCheckPropagatesSummary(t *testing.T) {
	addr, _ := startHealthServer(t)

	coordinator := newCoordinator()
	client := NewClient(testConfig(), coordinator, nil, nil)
	t.Cleanup(func() { _ = client.Close() })

	hop, ctx := coordinator.Begin(context.Background(), "http://svc/a", "")
	resp, err := client.Get(ctx, "health", "grpc://"+addr)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "SERVING", string(resp.Body))

	require.NotEmpty(t, hop.Outbound())
	s, err := trace.NewCodec(trace.VariantTrace).Decode(hop.Outbound())
	require.NoError(t, err)
	require.Len(t, s.Trace, 1)
	assert.Equal(t, "/grpc.health.v1.Health/Check", s.Trace[0].URL)
	assert.Equal(t, http.StatusOK, s.HTTPStatus)
}

func TestClientHealthCheckStatus(t *testing.T) {
	addr, hs := startHealthServer(t)
	hs.SetServingStatus("checkout", healthpb.HealthCheckResponse_NOT_SERVING)

	client := NewClient(testConfig(), nil, nil, nil)
	t.Cleanup(func() { _ = client.Close() })

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "server", target: "grpc://" + addr, want: http.StatusOK},
		{name: "not serving", target: "grpc://" + addr + "/checkout", want: http.StatusServiceUnavailable},
		{name: "unknown service", target: "grpc://" + addr + "/billing", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Get(context.Background(), "health", tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestClientHealthCheckUnreachable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	client := NewClient(testConfig(), nil, nil, nil)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.Get(context.Background(), "gone", "grpc://"+addr)
	assert.Error(t, err)
}

func TestSplitTarget(t *testing.T) {
	addr, service := splitTarget("grpc://localhost:50051/checkout")
	assert.Equal(t, "localhost:50051", addr)
	assert.Equal(t, "checkout", service)

	addr, service = splitTarget("grpc://localhost:50051")
	assert.Equal(t, "localhost:50051", addr)
	assert.Empty(t, service)
}
