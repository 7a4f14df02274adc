// Package httpserver builds http.Servers from config and runs them until a
// stop signal arrives.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"zoorl.local/internal/platform/config"
)

func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// NewAdmin 管理端口只给内网用；pprof 的 profile 接口需要更长的写超时。
func NewAdmin(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run serves every server until stopCtx is done or one of them fails, then
// shuts all of them down within shutdownTimeout. A server failing to start
// is returned as the error.
func Run(stopCtx context.Context, shutdownTimeout time.Duration, servers ...*http.Server) error {
	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			slog.Info("http server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	var runErr error
	select {
	case runErr = <-errCh:
	case <-stopCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all = []error{runErr}
	)
	for _, srv := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mu.Lock()
				all = append(all, err)
				mu.Unlock()
			}
		}(srv)
	}
	wg.Wait()
	return errors.Join(all...)
}
