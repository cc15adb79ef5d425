package trace

import "fmt"

// MalformedTraceError reports a header value that is present but cannot be decoded.
type MalformedTraceError struct {
	// Source names the header that failed: "inbound", "outbound" or empty.
	Source string
	Err    error
}

func (e *MalformedTraceError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("malformed trace: %v", e.Err)
	}
	return fmt.Sprintf("malformed %s trace: %v", e.Source, e.Err)
}

func (e *MalformedTraceError) Unwrap() error { return e.Err }

// EncodingError reports a Summary that could not be serialized.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode trace: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
