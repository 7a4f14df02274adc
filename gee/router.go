package gee

import (
	"sort"
	"strings"
)

type HandlerFunc func(*Context)

// router keeps one trie per HTTP method.
type router struct {
	trees    map[string]*node
	handlers map[string][]HandlerFunc // key: method + " " + pattern
}

func newRouter() *router {
	return &router{
		trees:    make(map[string]*node),
		handlers: make(map[string][]HandlerFunc),
	}
}

func routeKey(method, pattern string) string {
	return method + " " + pattern
}

// addRoute stores the complete chain (group middlewares + handlers).
func (r *router) addRoute(method, pattern string, chain []HandlerFunc) {
	root, ok := r.trees[method]
	if !ok {
		root = &node{}
		r.trees[method] = root
	}
	root.insert(pattern, splitPath(pattern))
	r.handlers[routeKey(method, pattern)] = chain
}

func (r *router) lookup(method, path string) (*node, map[string]string) {
	root, ok := r.trees[method]
	if !ok {
		return nil, nil
	}
	segs := splitPath(path)
	n := root.search(segs, 0)
	if n == nil {
		return nil, nil
	}
	return n, params(n.pattern, segs)
}

// handle picks the route chain, or the root middlewares followed by the
// 404/405 handlers, and runs it.
func (r *router) handle(c *Context) {
	if n, ps := r.lookup(c.Method, c.Path); n != nil {
		c.Params = ps
		c.RoutePattern = n.pattern
		c.handlers = r.handlers[routeKey(c.Method, n.pattern)]
	} else if allow := r.allowedMethods(c.Path); len(allow) > 0 {
		c.SetHeader("Allow", strings.Join(allow, ","))
		c.handlers = c.engine.combine(c.engine.methodNotAllowed)
	} else {
		c.handlers = c.engine.combine(c.engine.notFound)
	}
	c.Next()
}

func (r *router) allowedMethods(path string) []string {
	var allow []string
	for method := range r.trees {
		if n, _ := r.lookup(method, path); n != nil {
			allow = append(allow, method)
		}
	}
	sort.Strings(allow)
	return allow
}
