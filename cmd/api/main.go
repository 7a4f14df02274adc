package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"zoorl.local/gee"
	"zoorl.local/gee/middleware"
	"zoorl.local/internal/app/alias"
	"zoorl.local/internal/app/alias/httpapi"
	"zoorl.local/internal/app/alias/janitor"
	"zoorl.local/internal/platform/auth"
	"zoorl.local/internal/platform/config"
	"zoorl.local/internal/platform/httpmiddleware"
	"zoorl.local/internal/platform/httpserver"
	"zoorl.local/internal/platform/metrics"
	"zoorl.local/internal/platform/ratelimit"
	"zoorl.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})).With("service", cfg.ServiceName))

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(stopCtx, cfg); err != nil {
		slog.Error("exit", "err", err)
		os.Exit(1)
	}
}

func run(stopCtx context.Context, cfg config.Config) error {
	metrics.Init()

	if cfg.TracingEnabled {
		initCtx, cancel := context.WithTimeout(stopCtx, 5*time.Second)
		shutdown, err := trace.Init(initCtx, cfg.OtlpGrpcEndpoint, cfg.ServiceName, version)
		cancel()
		if err != nil {
			// 追踪不是关键路径，失败只告警
			slog.Error("tracing init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error("tracing shutdown failed", "err", err)
				}
			}()
		}
	} else {
		slog.Warn("tracing disabled by config", "TRACING_ENABLED", false)
	}

	conns, err := openDeps(stopCtx, cfg)
	if err != nil {
		return err
	}
	defer conns.Close()

	aliasStore, err := buildStore(stopCtx, cfg, conns)
	if err != nil {
		return err
	}
	defer aliasStore.Close()

	pipeline, err := buildEvents(cfg, conns)
	if err != nil {
		return err
	}
	pipeline.Start()
	// 在 httpserver.Run 返回（优雅关闭完成）之后才停，关闭期间的访问事件不会丢
	defer pipeline.Stop()

	if aliasStore.purger != nil {
		go janitor.New(aliasStore.purger, cfg.PurgeInterval).Run(stopCtx)
	}

	opts := httpapi.Options{
		Collector:   pipeline.collector,
		CreateRule:  ratelimit.Rule{Limit: cfg.RateLimitCreate, Window: time.Minute},
		ResolveRule: ratelimit.Rule{Limit: cfg.RateLimitResolve, Window: time.Minute},
	}
	if cfg.RateLimitEnabled {
		opts.Limiter = ratelimit.NewLimiter(conns.redis)
	} else {
		slog.Warn("rate limit disabled by config", "RATELIMIT_ENABLED", false)
	}
	if cfg.AuthRequired {
		ts, err := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
		if err != nil {
			return err
		}
		opts.Tokens = ts
	}

	r := gee.New()
	r.Use(gee.Recovery(), middleware.ReqID(), middleware.AccessLog(), httpmiddleware.Metrics(), httpmiddleware.TraceName())
	httpapi.RegisterRoutes(r, alias.NewService(aliasStore, alias.SystemClock), opts)
	r.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	var publicHandler http.Handler = r
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}

	slog.Info("zoorl starting",
		"addr", cfg.Addr,
		"admin_addr", cfg.AdminAddr,
		"store", cfg.StoreBackend,
		"cache", cfg.CacheEnabled,
		"bloom", cfg.BloomEnabled,
		"auth_required", cfg.AuthRequired,
		"version", version)

	return httpserver.Run(stopCtx, cfg.ShutdownTimeout,
		httpserver.New(cfg, publicHandler),
		httpserver.NewAdmin(cfg, newAdminMux(cfg, conns.readiness())),
	)
}
