package downstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/tracing"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const grpcScheme = "grpc://"

// check calls grpc.health.v1.Health/Check on a grpc://host:port[/service]
// target. The summary travels through the client interceptor.
func (c *Client) check(ctx context.Context, target string) (*Response, error) {
	addr, service := splitTarget(target)
	if addr == "" {
		return nil, fmt.Errorf("grpc target %q has no address", target)
	}

	conn, err := c.conn(addr)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	elapsed := time.Since(start)

	if err != nil {
		// Unreachable servers are transport failures, like a refused HTTP dial.
		if status.Code(err) == codes.Unavailable {
			return nil, fmt.Errorf("health check %s: %w", target, err)
		}
		return &Response{Status: tracing.HTTPStatus(err), Body: []byte(status.Convert(err).Message()), Duration: elapsed}, nil
	}

	code := http.StatusOK
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		code = http.StatusServiceUnavailable
	}
	return &Response{Status: code, Body: []byte(resp.GetStatus().String()), Duration: elapsed}, nil
}

// conn returns the cached connection for addr, dialing on first use.
func (c *Client) conn(addr string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[addr]; ok {
		return conn, nil
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if c.coordinator != nil {
		opts = append(opts, grpc.WithUnaryInterceptor(tracing.UnaryClientInterceptor(c.coordinator)))
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", addr, err)
	}
	c.conns[addr] = conn
	return conn, nil
}

func splitTarget(target string) (addr, service string) {
	rest := strings.TrimPrefix(target, grpcScheme)
	addr, service, _ = strings.Cut(rest, "/")
	return addr, service
}
