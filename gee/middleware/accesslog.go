// Package middleware holds the request-scoped gee middlewares shared by every route.
package middleware

import (
	"log/slog"
	"time"

	"zoorl.local/gee"
)

// AccessLog writes one structured line per request after the chain returns.
func AccessLog() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		slog.Log(ctx.Req.Context(), level, "access",
			"request_id", ctx.Req.Header.Get(RequestIDHeader),
			"method", ctx.Method,
			"path", ctx.Path,
			"route", ctx.RoutePattern,
			"status", status,
			"bytes", ctx.Writer.Size(),
			"client_ip", ctx.ClientIP(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}
