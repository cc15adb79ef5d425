package trace

import (
	"errors"
	"time"
)

// DefaultMaxBytes is the default limit for an encoded summary (16 KiB).
const DefaultMaxBytes = 16 * 1024

// Settings configures a Merger.
type Settings struct {
	// Variant selects the header dialect.
	Variant Variant

	// LockOnTruncation stops inserting entries into a summary once any entry
	// has been dropped from it. Later hops only bump the removal count, which
	// keeps the remaining list faithful to begin order. When false every hop
	// is inserted and the newest entry is dropped whenever the limit is hit,
	// which retains more entries at the cost of ordering gaps.
	LockOnTruncation bool

	// Clock defaults to SystemClock.
	Clock Clock

	// Overhead defaults to a private Compensator. Share one per process.
	Overhead *Compensator
}

// Hop describes the hop being merged.
type Hop struct {
	URL        string
	Begin      time.Time
	Inbound    string
	Outbound   string
	MaxBytes   int
	HTTPStatus int
}

// Result is the outcome of a merge.
type Result struct {
	Text string

	// Truncated is set when this call dropped an entry or, with the lock in
	// place, counted a skipped one.
	Truncated bool

	// Locked is set when the seed was already truncated and the lock applied.
	Locked bool

	Entries int
	Bytes   int
}

// Merger folds the current hop into an inbound summary.
// It is safe for concurrent use.
type Merger struct {
	codec    *Codec
	clock    Clock
	overhead *Compensator
	lock     bool
}

// NewMerger creates a merger with the given settings.
func NewMerger(settings Settings) *Merger {
	if settings.Clock == nil {
		settings.Clock = SystemClock{}
	}
	if settings.Overhead == nil {
		settings.Overhead = NewCompensator()
	}

	return &Merger{
		codec:    NewCodec(settings.Variant),
		clock:    settings.Clock,
		overhead: settings.Overhead,
		lock:     settings.LockOnTruncation,
	}
}

// Codec returns the codec used for header text.
func (m *Merger) Codec() *Codec {
	return m.codec
}

// Overhead returns the shared finalization estimate.
func (m *Merger) Overhead() *Compensator {
	return m.overhead
}

// MergeHop appends the hop that began at begin and returns the new header value.
// outbound, the value already produced by nested calls, wins over inbound.
// Blank values are treated as absent; httpStatus 0 means unknown.
func (m *Merger) MergeHop(hopURL string, begin time.Time, inbound, outbound string, maxBytes, httpStatus int) (string, error) {
	res, err := m.Merge(Hop{
		URL:        hopURL,
		Begin:      begin,
		Inbound:    inbound,
		Outbound:   outbound,
		MaxBytes:   maxBytes,
		HTTPStatus: httpStatus,
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Merge is MergeHop with a detailed result.
func (m *Merger) Merge(hop Hop) (Result, error) {
	end := m.clock.Now()

	summary, err := m.seed(hop.Inbound, hop.Outbound)
	if err != nil {
		return Result{}, err
	}

	entry := Entry{
		URL:        hop.URL,
		Begin:      hop.Begin,
		HTTPStatus: hop.HTTPStatus,
	}
	entry.Finalize(end)

	var res Result
	at := -1
	if m.lock && summary.Truncated() {
		summary.TruncationCount++
		res.Locked = true
		res.Truncated = true
	} else {
		at = summary.Insert(entry)
	}

	summary.URL = hop.URL
	summary.Begin = hop.Begin
	summary.HTTPStatus = hop.HTTPStatus
	summary.Finalize(end)

	finalizationStart := m.clock.Now()
	if at >= 0 {
		summary.Trace[at].FilterDuration = durationPtr(m.overhead.Estimate(finalizationStart.Sub(end)))
	}

	text, err := m.codec.Encode(summary)
	if err != nil {
		return Result{}, err
	}
	if hop.MaxBytes > 0 && len(text) > hop.MaxBytes && !res.Truncated {
		if summary.DropLast() {
			res.Truncated = true
			if text, err = m.codec.Encode(summary); err != nil {
				return Result{}, err
			}
		}
	}

	m.overhead.Record(m.clock.Now().Sub(finalizationStart))

	res.Text = text
	res.Entries = len(summary.Trace)
	res.Bytes = len(text)
	return res, nil
}

// seed picks the freshest available summary.
func (m *Merger) seed(inbound, outbound string) (Summary, error) {
	source, text := "outbound", outbound
	if isBlank(outbound) {
		source, text = "inbound", inbound
	}

	s, err := m.codec.Decode(text)
	if err != nil {
		var mte *MalformedTraceError
		if errors.As(err, &mte) {
			mte.Source = source
		}
		return Summary{}, err
	}
	return s, nil
}
