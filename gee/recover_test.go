package gee

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoveryReturnsGenericFiveHundred(t *testing.T) {
	e := Default()
	e.GET("/panic", func(*Context) { panic("secret detail") })

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Internal server error") || strings.Contains(body, "secret") {
		t.Fatalf("body = %s", body)
	}
}

func TestRecoveryStopsHandlerChain(t *testing.T) {
	executed := make([]int, 0)

	e := New()
	e.Use(Recovery())
	e.GET("/panic",
		func(*Context) { executed = append(executed, 1); panic("boom") },
		func(*Context) { executed = append(executed, 2) },
	)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/panic", nil))

	if len(executed) != 1 {
		t.Fatalf("executed = %v, want [1]", executed)
	}
}

func TestRecoveryCatchesMiddlewarePanic(t *testing.T) {
	e := Default()
	e.Use(func(*Context) { panic("panic in middleware") })
	e.GET("/test", func(c *Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRecoveryWhenResponseAlreadyWritten(t *testing.T) {
	e := Default()
	e.GET("/panic", func(c *Context) {
		c.String(http.StatusOK, "partial")
		panic("after write")
	})

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRecoveryRepanicsAbortHandler(t *testing.T) {
	e := Default()
	e.GET("/abort", func(*Context) { panic(http.ErrAbortHandler) })

	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Fatalf("recovered %v, want http.ErrAbortHandler", v)
		}
	}()
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
	t.Fatal("ServeHTTP returned normally")
}
