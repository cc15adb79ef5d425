package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/downstream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Caller performs downstream requests. *downstream.Client implements it.
type Caller interface {
	Do(ctx context.Context, route, method, url string, body []byte) (*downstream.Response, error)
}

// CallResult is reported for each downstream call in the response body.
type CallResult struct {
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	Status     int     `json:"status,omitempty"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// Handler serves the configured relay routes.
type Handler struct {
	routes []Route
	caller Caller
	logger *zap.Logger
}

// NewHandler creates a relay handler.
func NewHandler(f *File, caller Caller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{routes: f.Routes, caller: caller, logger: logger}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRoutes) {
	for i := range h.routes {
		route := h.routes[i]
		r.Handle(route.Method, route.Path, h.serve(route))
	}
}

func (h *Handler) serve(route Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if route.delay > 0 {
			select {
			case <-time.After(route.delay):
			case <-ctx.Done():
				c.AbortWithStatus(http.StatusServiceUnavailable)
				return
			}
		}

		// Calls run in order so each one forwards the summary the previous returned.
		results := make([]CallResult, 0, len(route.Calls))
		status := route.Status
		for _, call := range route.Calls {
			start := time.Now()
			resp, err := h.caller.Do(ctx, call.Name, call.Method, call.URL, nil)
			result := CallResult{
				Name:       call.Name,
				URL:        call.URL,
				DurationMS: float64(time.Since(start).Microseconds()) / 1000,
			}
			switch {
			case err != nil:
				result.Error = err.Error()
				status = http.StatusBadGateway
				h.logger.Warn("relay call failed", zap.String("route", route.Path), zap.String("call", call.Name), zap.Error(err))
			case resp.Status >= http.StatusInternalServerError:
				result.Status = resp.Status
				status = http.StatusBadGateway
			default:
				result.Status = resp.Status
			}
			results = append(results, result)
		}

		c.JSON(status, gin.H{
			"route": route.Path,
			"calls": results,
		})
	}
}
