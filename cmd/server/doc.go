// Package main is the entry point for the hop service.
//
// Every request the service handles is timed and merged into the duration
// summary that travels back to the caller in the x-duration response header.
// Relay routes loaded from a YAML file call other hop services, so a chain
// such as
//
//	A -> B
//	A -> C -> D
//
// can be run locally and its nested timings read from A's response.
//
// The server provides:
//   - Relay routes from RELAY_ROUTES_FILE
//   - GET /health with merge counters
//   - GET /metrics in Prometheus format
//   - Per-IP rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8001 -routes routes.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
