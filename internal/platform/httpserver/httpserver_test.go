package httpserver

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"zoorl.local/internal/platform/config"
)

func TestNew_UsesConfigAndHandler(t *testing.T) {
	cfg := config.Config{
		Addr:              "127.0.0.1:0",
		AdminAddr:         "127.0.0.1:0",
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       3 * time.Second,
		WriteTimeout:      4 * time.Second,
		IdleTimeout:       5 * time.Second,
	}
	handler := http.NewServeMux()

	srv := New(cfg, handler)
	if srv.Addr != cfg.Addr || srv.Handler != handler {
		t.Fatalf("Addr/Handler not taken from arguments")
	}
	if srv.ReadHeaderTimeout != 2*time.Second || srv.ReadTimeout != 3*time.Second ||
		srv.WriteTimeout != 4*time.Second || srv.IdleTimeout != 5*time.Second {
		t.Fatalf("timeouts = %v %v %v %v", srv.ReadHeaderTimeout, srv.ReadTimeout, srv.WriteTimeout, srv.IdleTimeout)
	}

	admin := NewAdmin(cfg, handler)
	if admin.Addr != cfg.AdminAddr || admin.WriteTimeout < 30*time.Second {
		t.Fatalf("admin server = %q write %v", admin.Addr, admin.WriteTimeout)
	}
}

func TestRun_CancelStopsAllServers(t *testing.T) {
	a := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	b := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}

	stopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(stopCtx, 500*time.Millisecond, a, b) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for shutdown")
	}
}

func TestRun_ReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	busy := &http.Server{Addr: ln.Addr().String(), Handler: http.NewServeMux()}
	ok := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}

	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), 500*time.Millisecond, busy, ok) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected address-in-use error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after listen failure")
	}
}
