/*
Package monitoring provides Prometheus metrics for the hop service.

# Overview

Metrics cover inbound HTTP traffic, the outcome of every trace merge, and
calls made to downstream services. Collectors are registered on an injected
registerer so tests can use a private registry.

# Features

- HTTP request metrics (latency, throughput, size)
- Merge outcomes (merged, truncated, locked), header size, entry count
- Malformed header and encoding failure counters
- Last finalization estimate as a gauge
- Downstream call metrics
- Uptime

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "checkout")
	// ... call downstream ...
	timer.Stop("200")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
