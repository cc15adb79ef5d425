package http

import (
	"net/http"

	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/tracing"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers serves the service's own endpoints.
type Handlers struct {
	metrics     *monitoring.Metrics
	gatherer    prometheus.Gatherer
	coordinator *tracing.Coordinator
	routes      int
}

// NewHandlers creates the handlers. routes is the number of relay routes served.
func NewHandlers(metrics *monitoring.Metrics, gatherer prometheus.Gatherer, coordinator *tracing.Coordinator, routes int) *Handlers {
	return &Handlers{
		metrics:     metrics,
		gatherer:    gatherer,
		coordinator: coordinator,
		routes:      routes,
	}
}

// Register mounts the handlers on r.
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Metrics())
}

// Health reports liveness and merge counters.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"duration": gin.H{
			"active": h.coordinator.Active(),
			"header": h.coordinator.HeaderName(),
		},
		"relay_routes": h.routes,
		"stats":        h.metrics.Snapshot(),
	})
}

// Metrics returns the Prometheus exposition handler.
func (h *Handlers) Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
