package repo

import (
	"context"
	"sync"

	"zoorl.local/internal/app/alias"
)

// MemoryRepo keeps records in a map. It has no native expiry, so reads
// filter expired records and Purge removes them.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]alias.Record
	clock   alias.Clock
}

func NewMemoryRepo(clock alias.Clock) *MemoryRepo {
	if clock == nil {
		clock = alias.SystemClock
	}
	return &MemoryRepo{
		records: make(map[string]alias.Record),
		clock:   clock,
	}
}

func (m *MemoryRepo) Save(ctx context.Context, rec alias.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Alias] = rec
	return nil
}

func (m *MemoryRepo) GetByAlias(ctx context.Context, code string) (alias.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return alias.Record{}, false, err
	}
	m.mu.RLock()
	rec, ok := m.records[code]
	m.mu.RUnlock()
	if !ok || rec.ExpiredAt(m.clock.Now()) {
		return alias.Record{}, false, nil
	}
	return rec, true, nil
}

func (m *MemoryRepo) Purge(ctx context.Context) (int64, error) {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, rec := range m.records {
		if rec.ExpiredAt(now) {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) Aliases(ctx context.Context, fn func(alias string)) error {
	now := m.clock.Now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, rec := range m.records {
		if !rec.ExpiredAt(now) {
			fn(k)
		}
	}
	return nil
}

// Len returns the number of stored records, expired ones included.
func (m *MemoryRepo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
