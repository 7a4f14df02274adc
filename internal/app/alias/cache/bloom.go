package cache

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomFilter answers "definitely never saved" for aliases. It only sees
// saves made by this process plus what Warm loaded, so it is meant for
// single-instance deployments.
type BloomFilter struct {
	mu sync.RWMutex
	bf *bloom.BloomFilter
}

func NewBloomFilter(capacity uint, fpRate float64) *BloomFilter {
	return &BloomFilter{bf: bloom.NewWithEstimates(capacity, fpRate)}
}

func (b *BloomFilter) Add(alias string) {
	b.mu.Lock()
	b.bf.AddString(alias)
	b.mu.Unlock()
}

// MayContain: false 一定没存过；true 可能存过（误判率约为 fpRate）。
func (b *BloomFilter) MayContain(alias string) bool {
	b.mu.RLock()
	ok := b.bf.TestString(alias)
	b.mu.RUnlock()
	return ok
}

// Len 是 bloom 估算出的元素个数，只用于日志。
func (b *BloomFilter) Len() uint32 {
	b.mu.RLock()
	n := b.bf.ApproximatedSize()
	b.mu.RUnlock()
	return n
}
