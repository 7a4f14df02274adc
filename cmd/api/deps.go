package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"zoorl.local/internal/app/alias"
	"zoorl.local/internal/app/alias/cache"
	"zoorl.local/internal/app/alias/events"
	"zoorl.local/internal/app/alias/repo"
	platformcache "zoorl.local/internal/platform/cache"
	"zoorl.local/internal/platform/config"
	"zoorl.local/internal/platform/db"
	"zoorl.local/internal/platform/migrate"
)

// deps holds the external connections; fields are nil when nothing needs them.
type deps struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func openDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}
	if cfg.NeedsPostgres() {
		dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		pool, err := db.New(dbCtx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		d.db = pool

		res, err := migrate.Up(dbCtx, pool, migrate.Options{FS: repo.Migrations})
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("postgres ready", "migrations_applied", res.AppliedFiles, "migrations_skipped", len(res.SkippedFiles))
	}
	if cfg.NeedsRedis() {
		client, err := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		d.redis = client
		slog.Info("redis ready", "addr", cfg.RedisAddr)
	}
	return d, nil
}

func (d *deps) Close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

func (d *deps) readiness() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if d.db != nil {
		checks["postgres"] = d.db.Ping
	}
	if d.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return d.redis.Ping(ctx).Err() }
	}
	return checks
}

// store is the repository the service talks to plus the optional
// capabilities of the backend underneath any cache.
type store struct {
	alias.Repository
	purger repo.Purger
	close  func()
}

func (s *store) Close() {
	if s.close != nil {
		s.close()
	}
}

func buildStore(ctx context.Context, cfg config.Config, d *deps) (*store, error) {
	var (
		backend alias.Repository
		lister  repo.Lister
		purger  repo.Purger
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		r := repo.NewPostgresRepo(d.db, alias.SystemClock)
		backend, lister, purger = r, r, r
	case config.BackendRedis:
		// Redis 自带 EXPIREAT，不需要 janitor
		r := repo.NewRedisRepo(d.redis)
		backend, lister = r, r
	default:
		r := repo.NewMemoryRepo(alias.SystemClock)
		backend, lister, purger = r, r, r
	}

	s := &store{Repository: backend, purger: purger}
	if !cfg.CacheEnabled && !cfg.BloomEnabled {
		return s, nil
	}

	var local *cache.LocalCache
	if cfg.CacheEnabled {
		l, err := cache.NewLocalCache(cfg.CacheMaxItems, cfg.CacheTTL, cfg.CacheNegativeTTL)
		if err != nil {
			return nil, fmt.Errorf("local cache: %w", err)
		}
		local = l
	}
	var bloom *cache.BloomFilter
	if cfg.BloomEnabled {
		bloom = cache.NewBloomFilter(cfg.BloomCapacity, cfg.BloomFPRate)
	}

	cached := cache.NewCachedRepo(backend, local, bloom, alias.SystemClock)
	if bloom != nil {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		n, err := cached.Warm(warmCtx, lister)
		cancel()
		if err != nil {
			cached.Close()
			return nil, fmt.Errorf("warm bloom filter: %w", err)
		}
		slog.Info("bloom filter warmed", "aliases", n)
	}
	s.Repository = cached
	s.close = cached.Close
	return s, nil
}

// eventPipeline is the collector handed to the HTTP layer and the consumer
// draining it. It is not tied to the signal context: Stop runs after the
// HTTP servers have finished, so resolves served during graceful shutdown
// still reach the sink.
type eventPipeline struct {
	collector events.Collector
	run       func(context.Context)
	// drains: run 在 collector 关闭后会自己写完剩余事件并返回
	drains bool
	after  []func()

	cancel context.CancelFunc
	done   chan struct{}
}

// drainTimeout 上限：Stop 等 consumer 写完尾批的最长时间。
const drainTimeout = 10 * time.Second

func (p *eventPipeline) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		if p.run != nil {
			p.run(ctx)
		}
	}()
}

// Stop closes the collector, lets the consumer drain, then stops it.
func (p *eventPipeline) Stop() {
	p.collector.Close()
	if p.done != nil {
		if p.drains {
			select {
			case <-p.done:
			case <-time.After(drainTimeout):
				slog.Warn("resolve events: drain timed out")
			}
		}
		p.cancel()
		<-p.done
	}
	for _, f := range p.after {
		f()
	}
}

func buildEvents(cfg config.Config, d *deps) (*eventPipeline, error) {
	if !cfg.EventsEnabled {
		return &eventPipeline{collector: events.Discard{}}, nil
	}

	var sink events.Sink = events.LogSink{}
	if cfg.EventsSink == config.SinkPostgres {
		sink = events.NewPostgresSink(d.db)
	}

	if cfg.KafkaEnabled {
		slog.Info("resolve events via kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector := events.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic)
		consumer := events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, sink)
		return &eventPipeline{
			collector: collector,
			run:       consumer.Run,
			after:     []func(){consumer.Close},
		}, nil
	}

	slog.Info("resolve events via channel", "buffer", cfg.EventsBuffer, "sink", cfg.EventsSink)
	return channelPipeline(sink, cfg.EventsBuffer), nil
}

func channelPipeline(sink events.Sink, buffer int) *eventPipeline {
	collector := events.NewChannelCollector(buffer)
	consumer := events.NewConsumer(sink, collector)
	return &eventPipeline{collector: collector, run: consumer.Run, drains: true}
}
