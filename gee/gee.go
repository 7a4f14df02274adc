// Package gee is a small trie-based HTTP router with gin-style middleware chains.
package gee

import (
	"log/slog"
	"net/http"
)

// Engine is the root RouterGroup plus the router and the fallback chains.
type Engine struct {
	RouterGroup
	router           *router
	notFound         []HandlerFunc
	methodNotAllowed []HandlerFunc
}

// RouterGroup shares a path prefix and a middleware chain. The chain is
// copied into each route when it is registered, so Use only affects routes
// added after it.
type RouterGroup struct {
	prefix string
	chain  []HandlerFunc
	engine *Engine
}

func New() *Engine {
	e := &Engine{router: newRouter()}
	e.RouterGroup = RouterGroup{engine: e}
	e.notFound = []HandlerFunc{func(c *Context) {
		c.AbortWithError(http.StatusNotFound, "Not Found")
	}}
	e.methodNotAllowed = []HandlerFunc{func(c *Context) {
		c.AbortWithError(http.StatusMethodNotAllowed, "Method Not Allowed")
	}}
	return e
}

// Default returns an engine that already recovers from handler panics.
func Default() *Engine {
	e := New()
	e.Use(Recovery())
	return e
}

// NoRoute replaces the 404 handlers. Root middlewares still run first.
func (e *Engine) NoRoute(handlers ...HandlerFunc) { e.notFound = handlers }

func (e *Engine) NoMethod(handlers ...HandlerFunc) { e.methodNotAllowed = handlers }

func (g *RouterGroup) Group(prefix string, middlewares ...HandlerFunc) *RouterGroup {
	return &RouterGroup{
		prefix: g.prefix + prefix,
		chain:  g.combine(middlewares),
		engine: g.engine,
	}
}

func (g *RouterGroup) Use(middlewares ...HandlerFunc) {
	g.chain = append(g.chain, middlewares...)
}

// combine 返回新切片，避免多个路由共用 chain 的底层数组。
func (g *RouterGroup) combine(handlers []HandlerFunc) []HandlerFunc {
	out := make([]HandlerFunc, 0, len(g.chain)+len(handlers))
	out = append(out, g.chain...)
	return append(out, handlers...)
}

// Handle registers handlers for an arbitrary method.
func (g *RouterGroup) Handle(method, relativePath string, handlers ...HandlerFunc) {
	if len(handlers) == 0 {
		panic("gee: " + method + " " + g.prefix + relativePath + " has no handler")
	}
	pattern := g.prefix + relativePath
	slog.Debug("route registered", "method", method, "pattern", pattern)
	g.engine.router.addRoute(method, pattern, g.combine(handlers))
}

func (g *RouterGroup) GET(path string, handlers ...HandlerFunc) {
	g.Handle(http.MethodGet, path, handlers...)
}

func (g *RouterGroup) POST(path string, handlers ...HandlerFunc) {
	g.Handle(http.MethodPost, path, handlers...)
}

func (e *Engine) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c := newContext(w, req)
	c.engine = e
	e.router.handle(c)
}
