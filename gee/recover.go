package gee

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
)

// callers 跳过 runtime 和 recover 本身，只保留业务栈帧。
func callers() []string {
	pcs := make([]uintptr, 32)
	pcs = pcs[:runtime.Callers(4, pcs)]

	var out []string
	frames := runtime.CallersFrames(pcs)
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			out = append(out, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		}
		if !more {
			return out
		}
	}
}

// Recovery turns a handler panic into a logged 500 unless a response was
// already started. http.ErrAbortHandler is re-raised for net/http.
func Recovery() HandlerFunc {
	return func(c *Context) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(v)
			}
			slog.Error("panic recovered",
				"request_id", c.Req.Header.Get("X-Request-ID"),
				"route", c.RoutePattern,
				"path", c.Path,
				"panic", fmt.Sprint(v),
				"stack", callers(),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithError(http.StatusInternalServerError, "Internal server error")
		}()
		c.Next()
	}
}
