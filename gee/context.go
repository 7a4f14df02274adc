package gee

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
)

type H map[string]any

// abortIndex 需要大于任何真实的 handler 下标，但不能大到嵌套 Next() 自增后溢出。
const abortIndex = math.MaxInt32

type Context struct {
	Writer *ResponseWriter
	Req    *http.Request

	Path         string
	Method       string
	Params       map[string]string
	RoutePattern string

	handlers []HandlerFunc
	index    int
	engine   *Engine
}

func newContext(w http.ResponseWriter, req *http.Request) *Context {
	return &Context{
		Writer: NewResponseWriter(w),
		Req:    req,
		Path:   req.URL.Path,
		Method: req.Method,
		index:  -1,
	}
}

func (c *Context) Param(key string) string {
	return c.Params[key]
}

// Query 返回 URL 查询参数中 key 的第一个值，不存在时为空串。
func (c *Context) Query(key string) string {
	return c.Req.URL.Query().Get(key)
}

// ClientIP returns the peer address, or the forwarded client address when the
// peer is a trusted proxy (loopback or private network). Untrusted peers could
// otherwise spoof X-Forwarded-For.
func (c *Context) ClientIP() string {
	remoteHost, _, err := net.SplitHostPort(c.Req.RemoteAddr)
	if err != nil {
		remoteHost = c.Req.RemoteAddr
	}
	remoteIP := net.ParseIP(remoteHost)
	if remoteIP == nil || !isTrustedProxy(remoteIP) {
		return remoteHost
	}

	// Cloudflare 注入的真实客户端 IP 优先
	if cf := strings.TrimSpace(c.Req.Header.Get("CF-Connecting-IP")); net.ParseIP(cf) != nil {
		return cf
	}
	// 第一个是原始客户端，后面是沿途代理
	if xff := c.Req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); net.ParseIP(first) != nil {
			return first
		}
	}
	if xrip := strings.TrimSpace(c.Req.Header.Get("X-Real-IP")); net.ParseIP(xrip) != nil {
		return xrip
	}
	return remoteHost
}

func isTrustedProxy(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate()
}

func (c *Context) Next() {
	c.index++
	s := len(c.handlers)
	for ; c.index < s && !c.IsAborted(); c.index++ {
		c.handlers[c.index](c)
	}
}

func (c *Context) Status(code int) {
	c.Writer.WriteHeader(code)
}

func (c *Context) SetHeader(key string, value string) {
	c.Writer.SetHeader(key, value)
}

func (c *Context) String(code int, format string, values ...any) {
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.Status(code)
	c.Writer.Write([]byte(fmt.Sprintf(format, values...)))
}

// JSON 直接流式写入响应；编码失败时状态码已经发出，只能追加错误文本。
func (c *Context) JSON(code int, obj any) {
	c.SetHeader("Content-Type", "application/json")
	c.Status(code)
	if err := json.NewEncoder(c.Writer).Encode(obj); err != nil {
		http.Error(c.Writer, err.Error(), http.StatusInternalServerError)
	}
}

// Redirect writes a bodiless redirect. contentType is what the browser is
// told it will land on.
func (c *Context) Redirect(code int, location, contentType string) {
	c.SetHeader("Location", location)
	if contentType != "" {
		c.SetHeader("Content-Type", contentType)
	}
	c.Status(code)
}

// Abort stops the remaining handlers; the current one keeps running.
func (c *Context) Abort() {
	c.index = abortIndex
}

func (c *Context) IsAborted() bool {
	return c.index >= abortIndex
}

func (c *Context) AbortWithStatusJSON(code int, obj any) {
	c.Abort()

	if c.Writer.Written() {
		return
	}

	bytes, err := json.Marshal(obj)
	if err != nil {
		code = http.StatusInternalServerError
		bytes = []byte(`{"code":500,"message":"Internal server error"}`)
	}
	c.SetHeader("Content-Type", "application/json")
	c.Status(code)
	c.Writer.Write(bytes)
}

func (c *Context) AbortWithError(code int, message string) {
	c.AbortWithStatusJSON(code, NewErrorResponse(c, code, message))
}
