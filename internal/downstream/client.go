package downstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/logging"
	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/durationtrace/internal/shared/id"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

// Config defines client behavior.
type Config struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second; zero or less means unlimited.
	RateLimit float64
	UserAgent string
}

// DefaultConfig returns the settings used by the hop service.
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		UserAgent:    "durationtrace-hop/1.0",
	}
}

// Response is the outcome of one downstream call.
type Response struct {
	Status   int
	Body     []byte
	Header   http.Header
	Duration time.Duration
}

// Client calls downstream hop services. Targets starting with grpc:// are
// answered by a gRPC health check instead of an HTTP request.
type Client struct {
	resty       *resty.Client
	coordinator *tracing.Coordinator
	limiter     *rate.Limiter
	logger      *logging.Logger
	metrics     *monitoring.Metrics
	mu          sync.RWMutex
	conns       map[string]*grpc.ClientConn
}

// NewClient builds a client. coordinator, logger and metrics may be nil.
func NewClient(cfg Config, coordinator *tracing.Coordinator, logger *logging.Logger, metrics *monitoring.Metrics) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = leveledLogger{logger.Sugar()}
	// Hand the last response back instead of an error once retries run out.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	var transport http.RoundTripper = &retryablehttp.RoundTripper{Client: retryClient}
	if coordinator != nil {
		transport = tracing.NewTransport(transport, coordinator)
	}

	restyClient := resty.New().
		SetTransport(transport).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	c := &Client{
		resty:       restyClient,
		coordinator: coordinator,
		limiter:     rate.NewLimiter(rate.Inf, 0),
		logger:      logger,
		metrics:     metrics,
		conns:       make(map[string]*grpc.ClientConn),
	}
	c.SetRateLimit(cfg.RateLimit)
	return c
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// Get performs a GET request. route labels the call in logs and metrics.
func (c *Client) Get(ctx context.Context, route, url string) (*Response, error) {
	return c.Do(ctx, route, http.MethodGet, url, nil)
}

// Do performs a request. ctx must carry the current hop for the duration
// summary to be forwarded.
func (c *Client) Do(ctx context.Context, route, method, url string, body []byte) (*Response, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	logger := c.logger.Call(id.NewCallID().String(), route, url)
	timer := monitoring.NewTimer(c.metrics, route)

	var (
		resp *Response
		err  error
	)
	if strings.HasPrefix(url, grpcScheme) {
		resp, err = c.check(ctx, url)
	} else {
		resp, err = c.send(ctx, method, url, body)
	}
	if err != nil {
		timer.Stop("error")
		logger.Warn("downstream call failed", zap.Error(err))
		return nil, err
	}

	timer.Stop(strconv.Itoa(resp.Status))
	logger.Debug("downstream call",
		zap.Int("status", resp.Status),
		zap.Duration("duration", resp.Duration),
	)
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, url string, body []byte) (*Response, error) {
	req := c.resty.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return &Response{
		Status:   resp.StatusCode(),
		Body:     resp.Body(),
		Header:   resp.Header(),
		Duration: resp.Time(),
	}, nil
}

// Close releases the cached gRPC connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for addr, conn := range c.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", addr, err))
		}
		delete(c.conns, addr)
	}
	return errors.Join(errs...)
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) { l.s.Errorw(msg, keysAndValues...) }
func (l leveledLogger) Info(msg string, keysAndValues ...interface{})  { l.s.Debugw(msg, keysAndValues...) }
func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) { l.s.Debugw(msg, keysAndValues...) }
func (l leveledLogger) Warn(msg string, keysAndValues ...interface{})  { l.s.Warnw(msg, keysAndValues...) }
