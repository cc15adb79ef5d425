package tracing

import (
	"net/http"
)

// Transport is an http.RoundTripper that forwards the current hop's summary
// on outgoing requests and records the summary each response carries.
// Requests whose context holds no hop pass through untouched.
type Transport struct {
	Base        http.RoundTripper
	Coordinator *Coordinator
}

// NewTransport wraps base. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, coordinator *Coordinator) *Transport {
	return &Transport{Base: base, Coordinator: coordinator}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	hop, ok := HopFromContext(req.Context())
	if !ok || t.Coordinator == nil || !t.Coordinator.Active() {
		return t.base().RoundTrip(req)
	}

	name := t.Coordinator.HeaderName()
	if current := hop.Current(); current != "" {
		req = req.Clone(req.Context())
		req.Header.Set(name, current)
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	hop.Observe(resp.Header.Get(name))
	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
