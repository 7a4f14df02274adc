package cache

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"zoorl.local/internal/app/alias"
	"zoorl.local/internal/app/alias/repo"
	"zoorl.local/internal/platform/metrics"
)

// CachedRepo puts a bloom filter and an L1 cache in front of another
// alias.Repository. Either layer may be nil.
//
// Save goes to the backend first and then replaces the L1 entry. A read
// that overlapped a Save of the same alias does not back-fill L1, so once
// Save returns no later GetByAlias in this process sees the older value.
type CachedRepo struct {
	next  alias.Repository
	local *LocalCache
	bloom *BloomFilter
	clock alias.Clock
	gens  generations
}

// generations 是按 alias 分桶的写入代数。Save 在访问后端前后各加一次；
// 读路径在访问后端前记下代数，回填 L1 时代数变了就放弃回填。
// 分桶让内存固定，代价是同桶的其他 alias 偶尔少回填一次。
type generations struct {
	stripes [256]genStripe
}

type genStripe struct {
	mu  sync.Mutex
	gen uint64
}

func (g *generations) stripe(code string) *genStripe {
	return &g.stripes[xxhash.Sum64String(code)%uint64(len(g.stripes))]
}

func (g *generations) bump(code string) {
	s := g.stripe(code)
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

func (g *generations) current(code string) uint64 {
	s := g.stripe(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// fillIf runs fill under the stripe lock when no Save started since seen.
func (g *generations) fillIf(code string, seen uint64, fill func()) bool {
	s := g.stripe(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != seen {
		return false
	}
	fill()
	return true
}

// replace bumps the generation and runs set under the stripe lock, so it
// cannot interleave with a concurrent fillIf.
func (g *generations) replace(code string, set func()) {
	s := g.stripe(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	set()
}

func NewCachedRepo(next alias.Repository, local *LocalCache, bloom *BloomFilter, clock alias.Clock) *CachedRepo {
	if clock == nil {
		clock = alias.SystemClock
	}
	return &CachedRepo{next: next, local: local, bloom: bloom, clock: clock}
}

func (c *CachedRepo) Save(ctx context.Context, rec alias.Record) error {
	if c.local != nil {
		c.gens.bump(rec.Alias)
		c.local.Del(rec.Alias)
	}
	if err := c.next.Save(ctx, rec); err != nil {
		return err
	}
	if c.bloom != nil {
		c.bloom.Add(rec.Alias)
	}
	if c.local != nil {
		c.gens.replace(rec.Alias, func() {
			c.local.Del(rec.Alias)
			c.local.Set(rec, c.clock.Now())
		})
	}
	return nil
}

func (c *CachedRepo) GetByAlias(ctx context.Context, code string) (alias.Record, bool, error) {
	if c.bloom != nil && !c.bloom.MayContain(code) {
		metrics.CacheOperations.WithLabelValues("bloom", "reject").Inc()
		return alias.Record{}, false, nil
	}

	now := c.clock.Now()
	var seen uint64
	if c.local != nil {
		seen = c.gens.current(code)
		if rec, absent, hit := c.local.Get(code); hit {
			if absent {
				metrics.CacheOperations.WithLabelValues("l1", "hit_negative").Inc()
				return alias.Record{}, false, nil
			}
			if !rec.ExpiredAt(now) {
				metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
				return rec, true, nil
			}
			c.local.Del(code)
		}
		metrics.CacheOperations.WithLabelValues("l1", "miss").Inc()
	}

	rec, ok, err := c.next.GetByAlias(ctx, code)
	if err != nil {
		return alias.Record{}, false, err
	}
	if c.local != nil {
		filled := c.gens.fillIf(code, seen, func() {
			if ok {
				c.local.Set(rec, now)
			} else {
				c.local.SetNotFound(code)
			}
		})
		if !filled {
			metrics.CacheOperations.WithLabelValues("l1", "fill_skipped").Inc()
		}
	}
	return rec, ok, nil
}

// Warm loads every live alias of lister into the bloom filter.
func (c *CachedRepo) Warm(ctx context.Context, lister repo.Lister) (int, error) {
	if c.bloom == nil {
		return 0, nil
	}
	n := 0
	err := lister.Aliases(ctx, func(code string) {
		c.bloom.Add(code)
		n++
	})
	return n, err
}

// Close releases the L1 cache.
func (c *CachedRepo) Close() {
	if c.local != nil {
		c.local.Close()
	}
}
