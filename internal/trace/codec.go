package trace

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Variant selects which of the two header dialects a Codec speaks.
type Variant int

const (
	// VariantDuration reports removals as truncationCount and never emits status.
	VariantDuration Variant = iota
	// VariantTrace reports removals as traceRemovalCount and emits httpstatus.
	VariantTrace
)

// String returns the configuration name of the variant.
func (v Variant) String() string {
	switch v {
	case VariantDuration:
		return "duration"
	case VariantTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseVariant converts a configuration name into a Variant. An empty name
// selects VariantDuration.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "duration", "":
		return VariantDuration, nil
	case "trace":
		return VariantTrace, nil
	default:
		return 0, fmt.Errorf("unknown trace variant %q", name)
	}
}

// wireEntry is the JSON shape of both a Summary and its trace entries.
// Fields are declared in lexicographic key order, which is the emission order.
type wireEntry struct {
	Begin             string      `json:"begin,omitempty"`
	Duration          string      `json:"duration,omitempty"`
	End               string      `json:"end,omitempty"`
	FilterDuration    string      `json:"filterDuration,omitempty"`
	HTTPStatus        int         `json:"httpstatus,omitempty"`
	Trace             []wireEntry `json:"trace,omitempty"`
	TraceRemovalCount int         `json:"traceRemovalCount,omitempty"`
	TruncationCount   int         `json:"truncationCount,omitempty"`
	URL               string      `json:"url,omitempty"`
}

// Codec converts between header text and Summary values.
// It is safe for concurrent use.
type Codec struct {
	variant Variant
	api     sonic.API
}

// NewCodec creates a codec for the given header dialect.
func NewCodec(variant Variant) *Codec {
	return &Codec{
		variant: variant,
		api: sonic.Config{
			ValidateString: true,
		}.Froze(),
	}
}

// Variant returns the dialect this codec encodes.
func (c *Codec) Variant() Variant {
	return c.variant
}

// Decode parses header text. Blank text is not an error and yields an empty Summary.
func (c *Codec) Decode(text string) (Summary, error) {
	if isBlank(text) {
		return Summary{}, nil
	}

	var w wireEntry
	if err := c.api.UnmarshalFromString(text, &w); err != nil {
		return Summary{}, &MalformedTraceError{Err: err}
	}

	outer, err := w.entry()
	if err != nil {
		return Summary{}, &MalformedTraceError{Err: err}
	}

	s := Summary{
		Entry:           outer,
		TruncationCount: max(w.TraceRemovalCount, w.TruncationCount),
	}
	if len(w.Trace) > 0 {
		s.Trace = make([]Entry, 0, len(w.Trace))
		for i := range w.Trace {
			e, err := w.Trace[i].entry()
			if err != nil {
				return Summary{}, &MalformedTraceError{Err: fmt.Errorf("trace[%d]: %w", i, err)}
			}
			s.Trace = append(s.Trace, e)
		}
	}

	return s, nil
}

// Encode renders s canonically: sorted keys, absent fields omitted.
func (c *Codec) Encode(s Summary) (string, error) {
	w := c.wire(s.Entry)
	switch c.variant {
	case VariantTrace:
		w.TraceRemovalCount = s.TruncationCount
	default:
		w.TruncationCount = s.TruncationCount
	}
	if len(s.Trace) > 0 {
		w.Trace = make([]wireEntry, len(s.Trace))
		for i := range s.Trace {
			w.Trace[i] = c.wire(s.Trace[i])
		}
	}

	text, err := c.api.MarshalToString(&w)
	if err != nil {
		return "", &EncodingError{Err: err}
	}
	return text, nil
}

func (c *Codec) wire(e Entry) wireEntry {
	w := wireEntry{URL: e.URL}
	if !e.Begin.IsZero() {
		w.Begin = formatInstant(e.Begin)
	}
	if !e.End.IsZero() {
		w.End = formatInstant(e.End)
	}
	if !e.Begin.IsZero() || !e.End.IsZero() || e.Duration != 0 {
		w.Duration = formatPeriod(e.Duration)
	}
	if e.FilterDuration != nil {
		w.FilterDuration = formatPeriod(*e.FilterDuration)
	}
	if c.variant == VariantTrace {
		w.HTTPStatus = e.HTTPStatus
	}
	return w
}

func (w *wireEntry) entry() (Entry, error) {
	e := Entry{URL: w.URL, HTTPStatus: w.HTTPStatus}

	var err error
	if w.Begin != "" {
		if e.Begin, err = parseInstant(w.Begin); err != nil {
			return Entry{}, fmt.Errorf("begin: %w", err)
		}
	}
	if w.End != "" {
		if e.End, err = parseInstant(w.End); err != nil {
			return Entry{}, fmt.Errorf("end: %w", err)
		}
	}

	if w.Duration != "" {
		if e.Duration, err = parsePeriod(w.Duration); err != nil {
			return Entry{}, fmt.Errorf("duration: %w", err)
		}
	}
	// Duration is derived, never trusted, when both marks are known.
	if !e.Begin.IsZero() && !e.End.IsZero() {
		e.Duration = between(e.Begin, e.End)
	}

	if w.FilterDuration != "" {
		fd, err := parsePeriod(w.FilterDuration)
		if err != nil {
			return Entry{}, fmt.Errorf("filterDuration: %w", err)
		}
		e.FilterDuration = &fd
	}

	return e, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// durationPtr returns a pointer to d.
func durationPtr(d time.Duration) *time.Duration {
	return &d
}
