// Package config provides 12-factor configuration for the hop service.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Duration: Header name, size limit, dialect and truncation lock
//   - Relay: Route file and timeout for downstream calls
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - DURATION_HEADER_NAME, DURATION_ACTIVE, DURATION_MAX_LENGTH
//   - DURATION_VARIANT, DURATION_LOCK_ON_TRUNCATION
//   - RELAY_ROUTES_FILE, RELAY_TIMEOUT
package config
