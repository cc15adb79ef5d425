/*
Package tracing wires duration summaries into the service's transports.

# Overview

Each request handled by this service is a hop. The Coordinator records when
a hop begins, then merges it into the summary received from the caller or
returned by downstream calls, and emits the result as a response header. The
summary itself is built by package trace; this package only moves it between
requests, responses and gRPC metadata.

Tracing is best effort. A malformed incoming header is logged, counted and
ignored; an unencodable summary is logged and the header is omitted. The
request itself never fails because of tracing.

# Features

- Gin middleware for inbound HTTP requests
- gRPC unary and stream server interceptors, unary client interceptor
- http.RoundTripper that forwards the freshest summary to downstream calls
  and captures the one they return
- Hop state carried in context.Context

# Usage

	coordinator := tracing.New(tracing.Settings{
		HeaderName: "x-duration",
		Active:     true,
		MaxBytes:   trace.DefaultMaxBytes,
		Merger:     trace.Settings{Variant: trace.VariantTrace, LockOnTruncation: true},
	}, logger, metrics) // logger is a *logging.Logger

	// HTTP middleware; health and metrics are not hops
	router.Use(tracing.HTTPMiddleware(coordinator, "/health", "/metrics"))

	// Outbound HTTP
	client := &http.Client{Transport: tracing.NewTransport(nil, coordinator)}
	req, _ := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)

	// gRPC
	server := grpc.NewServer(
		grpc.UnaryInterceptor(tracing.UnaryServerInterceptor(coordinator)),
		grpc.StreamInterceptor(tracing.StreamServerInterceptor(coordinator)),
	)
	conn, err := grpc.NewClient(addr,
		grpc.WithUnaryInterceptor(tracing.UnaryClientInterceptor(coordinator)),
	)

# Propagation

The HTTP header defaults to x-duration; gRPC uses the lowercased header name
as metadata key. Sibling downstream calls of one hop each receive the summary
returned by the previous call, so the final response nests every call made.
*/
package tracing
