package tracing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/shared/id"
)

// Hop is the request currently being handled by this service.
//
// The downstream transport and client interceptor feed every response header
// they see into Observe, so Current always holds the freshest summary: the
// value sibling calls forward and the value merged when the hop finishes.
type Hop struct {
	ID      id.HopID
	URL     string
	Begin   time.Time
	Inbound string

	mu       sync.Mutex
	outbound string
}

// Observe records a summary returned by a downstream call. Blank values are ignored.
func (h *Hop) Observe(value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	h.mu.Lock()
	h.outbound = value
	h.mu.Unlock()
}

// Outbound returns the last observed downstream summary, if any.
func (h *Hop) Outbound() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outbound
}

// Current returns the summary to forward on the next downstream call.
func (h *Hop) Current() string {
	if out := h.Outbound(); out != "" {
		return out
	}
	return h.Inbound
}

type contextKey string

const hopKey contextKey = "duration_hop"

// WithHop returns a context carrying hop.
func WithHop(ctx context.Context, hop *Hop) context.Context {
	return context.WithValue(ctx, hopKey, hop)
}

// HopFromContext retrieves the hop stored by WithHop.
func HopFromContext(ctx context.Context) (*Hop, bool) {
	hop, ok := ctx.Value(hopKey).(*Hop)
	return hop, ok && hop != nil
}
