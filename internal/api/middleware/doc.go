// Package middleware provides HTTP middleware for the hop service.
//
// Middleware stack includes:
//   - CORS: exposes the duration header to browser callers
//   - RateLimit: per-IP token bucket rate limiting with idle eviction
//
// Health and metrics endpoints are exempt from rate limiting by default.
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig("x-duration")))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
