package tracing

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/logging"
	"github.com/GriffinCanCode/durationtrace/internal/shared/id"
	"github.com/GriffinCanCode/durationtrace/internal/trace"
	"go.uber.org/zap"
)

// DefaultHeader is the header that carries the summary.
const DefaultHeader = "x-duration"

// Recorder receives merge outcomes. *monitoring.Metrics implements it.
type Recorder interface {
	RecordMerge(res trace.Result, finalization time.Duration)
	RecordMalformed(source string)
	RecordEncodingFailure()
}

// Settings configures a Coordinator.
type Settings struct {
	HeaderName string
	Active     bool
	// MaxBytes limits the emitted header; zero or less disables the limit.
	MaxBytes int
	Merger   trace.Settings
}

// Coordinator starts and finishes hops for the interception layers.
// Tracing is best effort: no method ever fails the request.
type Coordinator struct {
	header   string
	mdKey    string
	active   bool
	maxBytes int
	clock    trace.Clock
	merger   *trace.Merger
	logger   *logging.Logger
	recorder Recorder
}

// New creates a coordinator. logger and recorder may be nil.
func New(settings Settings, logger *logging.Logger, recorder Recorder) *Coordinator {
	if settings.HeaderName == "" {
		settings.HeaderName = DefaultHeader
	}
	if settings.Merger.Clock == nil {
		settings.Merger.Clock = trace.SystemClock{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Coordinator{
		header:   http.CanonicalHeaderKey(settings.HeaderName),
		mdKey:    strings.ToLower(settings.HeaderName),
		active:   settings.Active,
		maxBytes: settings.MaxBytes,
		clock:    settings.Merger.Clock,
		merger:   trace.NewMerger(settings.Merger),
		logger:   logger,
		recorder: recorder,
	}
}

// Active reports whether hops are traced at all.
func (c *Coordinator) Active() bool {
	return c.active
}

// HeaderName returns the canonical HTTP header name.
func (c *Coordinator) HeaderName() string {
	return c.header
}

// MetadataKey returns the gRPC metadata key.
func (c *Coordinator) MetadataKey() string {
	return c.mdKey
}

// Merger returns the underlying merger.
func (c *Coordinator) Merger() *trace.Merger {
	return c.merger
}

// Begin marks the start of a hop and returns a context carrying it.
func (c *Coordinator) Begin(ctx context.Context, url, inbound string) (*Hop, context.Context) {
	hop := &Hop{
		ID:      id.NewHopID(),
		URL:     url,
		Begin:   c.clock.Now(),
		Inbound: inbound,
	}
	return hop, WithHop(ctx, hop)
}

// Finish merges the hop and returns the header value to emit.
// ok is false when no header should be written.
func (c *Coordinator) Finish(hop *Hop, status int) (value string, ok bool) {
	logger := c.logger.Hop(hop.ID.String(), hop.URL)

	in := trace.Hop{
		URL:        hop.URL,
		Begin:      hop.Begin,
		Inbound:    hop.Inbound,
		Outbound:   hop.Outbound(),
		MaxBytes:   c.maxBytes,
		HTTPStatus: status,
	}

	// Each failed decode clears one source, so three attempts always suffice.
	for attempt := 0; attempt < 3; attempt++ {
		res, err := c.merger.Merge(in)
		if err == nil {
			if c.recorder != nil {
				c.recorder.RecordMerge(res, c.merger.Overhead().Last())
			}
			logger.Debug("trace merged",
				zap.Int("status", status),
				zap.Int("bytes", res.Bytes),
				zap.Int("entries", res.Entries),
				zap.Bool("truncated", res.Truncated),
				zap.Bool("locked", res.Locked),
			)
			return res.Text, true
		}

		var mte *trace.MalformedTraceError
		if !errors.As(err, &mte) {
			if c.recorder != nil {
				c.recorder.RecordEncodingFailure()
			}
			logger.Error("dropping duration header", zap.Error(err))
			return "", false
		}

		if c.recorder != nil {
			c.recorder.RecordMalformed(mte.Source)
		}
		logger.Warn("ignoring malformed duration header",
			zap.String("source", mte.Source),
			zap.Error(err),
		)
		switch mte.Source {
		case "outbound":
			in.Outbound = ""
		case "inbound":
			in.Inbound = ""
		default:
			in.Inbound, in.Outbound = "", ""
		}
	}

	return "", false
}
