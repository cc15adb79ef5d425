package tracing

import (
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/logging"
	"github.com/GriffinCanCode/durationtrace/internal/trace"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var t0 = time.Date(2025, 8, 28, 20, 21, 15, 0, time.UTC)

type fakeRecorder struct {
	mu        sync.Mutex
	merges    []trace.Result
	malformed []string
	encoding  int
}

func (r *fakeRecorder) RecordMerge(res trace.Result, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merges = append(r.merges, res)
}

func (r *fakeRecorder) RecordMalformed(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.malformed = append(r.malformed, source)
}

func (r *fakeRecorder) RecordEncodingFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoding++
}

type fixture struct {
	coordinator *Coordinator
	clock       *trace.ManualClock
	recorder    *fakeRecorder
	logs        *observer.ObservedLogs
}

func newFixture(t *testing.T, active bool) *fixture {
	t.Helper()

	clock := trace.NewManualClock(t0)
	core, logs := observer.New(zap.DebugLevel)
	rec := &fakeRecorder{}

	c := New(Settings{
		Active:   active,
		MaxBytes: trace.DefaultMaxBytes,
		Merger: trace.Settings{
			Variant:          trace.VariantTrace,
			LockOnTruncation: true,
			Clock:            clock,
		},
	}, logging.Wrap(zap.New(core)), rec)

	return &fixture{coordinator: c, clock: clock, recorder: rec, logs: logs}
}

func (f *fixture) decode(t *testing.T, text string) trace.Summary {
	t.Helper()
	s, err := f.coordinator.Merger().Codec().Decode(text)
	require.NoError(t, err)
	return s
}

func urls(s trace.Summary) []string {
	out := make([]string, len(s.Trace))
	for i, e := range s.Trace {
		out[i] = e.URL
	}
	return out
}
