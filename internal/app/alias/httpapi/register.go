// Package httpapi is the HTTP boundary of the alias service: it translates
// requests into alias.Service calls and errors into status codes.
package httpapi

import (
	"context"

	"zoorl.local/gee"
	"zoorl.local/internal/app/alias"
	"zoorl.local/internal/app/alias/events"
	"zoorl.local/internal/platform/auth"
	"zoorl.local/internal/platform/httpmiddleware"
	"zoorl.local/internal/platform/ratelimit"
)

// Aliaser is implemented by *alias.Service.
type Aliaser interface {
	Create(ctx context.Context, req alias.CreateRequest) (alias.Record, error)
	Resolve(ctx context.Context, alias string) (alias.Record, error)
}

type Options struct {
	// Tokens 非 nil 时 POST /u 需要带 alias:create scope 的 bearer token。
	Tokens auth.TokenService

	// Limiter 为 nil 时不限流。
	Limiter     httpmiddleware.Allower
	CreateRule  ratelimit.Rule
	ResolveRule ratelimit.Rule

	Collector events.Collector
	Clock     alias.Clock
}

// RegisterRoutes mounts
//
//	POST /u         create an alias
//	GET  /u/:alias  look an alias up (JSON)
//	GET  /r/:alias  301 to the aliased URL
func RegisterRoutes(engine *gee.Engine, svc Aliaser, opts Options) {
	if opts.Collector == nil {
		opts.Collector = events.Discard{}
	}
	if opts.Clock == nil {
		opts.Clock = alias.SystemClock
	}
	h := &handlers{svc: svc, collector: opts.Collector, clock: opts.Clock}

	create := []gee.HandlerFunc{httpmiddleware.RateLimit(opts.Limiter, "create", opts.CreateRule)}
	if opts.Tokens != nil {
		create = append(create, httpmiddleware.RequireToken(opts.Tokens, auth.ScopeCreate))
	}
	engine.POST("/u", append(create, h.create)...)

	resolveLimit := httpmiddleware.RateLimit(opts.Limiter, "resolve", opts.ResolveRule)
	engine.GET("/u/:alias", resolveLimit, h.lookup)
	engine.GET("/r/:alias", resolveLimit, h.redirect)
}
