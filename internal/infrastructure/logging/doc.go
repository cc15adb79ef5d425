// Package logging builds the zap loggers used by the hop service.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Hop logs carry hop_id and url fields so one hop can be followed through
// its merge and downstream calls.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Hop(hopID, url).Debug("trace merged", zap.Int("bytes", n))
//	logger.Call(callID, route, target).Warn("downstream call failed", zap.Error(err))
package logging
