/*
Package downstream is the HTTP client hop services use to call each other.

Requests go through resty, then the duration propagating transport, then a
retrying transport from go-retryablehttp. The propagating transport sits
outside the retries so only the final response's summary is recorded.
An optional token bucket limits the outbound request rate.

Targets of the form grpc://host:port[/service] are answered by a
grpc.health.v1 Check over a cached connection. The summary travels in
metadata through tracing.UnaryClientInterceptor, and the serving status is
reported as 200, 503, or the HTTP equivalent of the gRPC error.

	client := downstream.NewClient(downstream.DefaultConfig(), coordinator, logger, metrics)
	resp, err := client.Get(c.Request.Context(), "checkout", "http://checkout:8000/pay")
*/
package downstream
