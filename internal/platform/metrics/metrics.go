package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Prometheus 的 registry 不允许重复注册同名指标，否则会直接 panic。
	once sync.Once

	// HTTPRequestsTotal 按 method/route/status 统计请求数。
	// route 必须是路由模板（/u/:alias），不能是真实 path，否则 label 基数无限增长。
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	AliasCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alias_created_total",
			Help: "Aliases written by the create workflow.",
		},
	)

	// AliasResolves 的 outcome：found / not_found / error；kind：lookup（JSON）/ redirect。
	AliasResolves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alias_resolve_total",
			Help: "Alias lookups by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// CacheOperations：layer 为 l1 / bloom，result 为 hit / hit_negative / miss / reject / fill_skipped。
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alias_cache_operations_total",
			Help: "Alias read cache operations by layer and result.",
		},
		[]string{"layer", "result"},
	)

	AliasPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alias_purged_total",
			Help: "Expired alias records deleted by the janitor.",
		},
	)

	ResolveEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alias_resolve_events_dropped_total",
			Help: "Resolve events dropped because the collector buffer was full.",
		},
	)
)

// Init 注册指标：只允许注册一次。
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			AliasCreated,
			AliasResolves,
			CacheOperations,
			AliasPurged,
			ResolveEventsDropped,
		)
	})
}
