package httpmiddleware

import (
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"zoorl.local/gee"
	"zoorl.local/internal/platform/metrics"
)

// Metrics records request counters and latency keyed by route template.
func Metrics() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()
		defer metrics.HTTPInflightRequests.Dec()

		ctx.Next()

		route := ctx.RoutePattern
		if route == "" {
			route = "UNMATCHED"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, route, status).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, route).Observe(time.Since(start).Seconds())
	}
}

// TraceName renames the otelhttp server span to "METHOD /route/:param".
func TraceName() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if ctx.RoutePattern != "" {
			trace.SpanFromContext(ctx.Req.Context()).SetName(ctx.Method + " " + ctx.RoutePattern)
		}
		ctx.Next()
	}
}
