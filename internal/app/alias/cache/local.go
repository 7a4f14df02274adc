package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"zoorl.local/internal/app/alias"
)

// entry 是 L1 中保存的值；absent=true 表示负缓存（后端确认不存在）。
type entry struct {
	rec    alias.Record
	absent bool
}

// LocalCache 基于 ristretto 的进程内记录缓存。
type LocalCache struct {
	cache    *ristretto.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewLocalCache builds the L1 cache. maxItems bounds the entry count (cost 1
// per entry). emptyTTL <= 0 disables negative caching.
func NewLocalCache(maxItems int64, ttl, emptyTTL time.Duration) (*LocalCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // 计数器数量，建议为 maxItems 的 10 倍
		MaxCost:     maxItems,
		BufferItems: 64,
		// 按条目计数，不把 ristretto 内部结构的开销算进 cost
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		cache:    cache,
		ttl:      ttl,
		emptyTTL: emptyTTL,
	}, nil
}

// Get returns the cached record; absent reports a negative entry.
func (l *LocalCache) Get(code string) (rec alias.Record, absent bool, hit bool) {
	v, ok := l.cache.Get(code)
	if !ok {
		return alias.Record{}, false, false
	}
	e := v.(entry)
	return e.rec, e.absent, true
}

// Set caches rec for at most the configured TTL and never past its expiry.
func (l *LocalCache) Set(rec alias.Record, now time.Time) {
	ttl := l.ttl
	if remaining := time.Unix(rec.Expiry+1, 0).Sub(now); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	l.cache.SetWithTTL(rec.Alias, entry{rec: rec}, 1, ttl)
}

func (l *LocalCache) SetNotFound(code string) {
	if l.emptyTTL <= 0 {
		return
	}
	l.cache.SetWithTTL(code, entry{absent: true}, 1, l.emptyTTL)
}

func (l *LocalCache) Del(code string) {
	l.cache.Del(code)
}

// Wait blocks until buffered writes are applied.
func (l *LocalCache) Wait() {
	l.cache.Wait()
}

func (l *LocalCache) Close() {
	l.cache.Close()
}
