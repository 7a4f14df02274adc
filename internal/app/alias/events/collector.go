// Package events records alias resolutions off the request path.
package events

import (
	"sync"
	"time"

	"zoorl.local/internal/platform/metrics"
)

// ResolveEvent 一次成功解析（JSON 查询或 301 跳转）。
type ResolveEvent struct {
	Alias      string    `json:"alias"`
	ResolvedAt time.Time `json:"resolved_at"`
	Redirect   bool      `json:"redirect"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	Referer    string    `json:"referer"`
}

// Collector must never block the caller.
type Collector interface {
	Collect(event ResolveEvent)
	Close()
}

// ChannelCollector buffers events in a bounded channel and drops them when
// the buffer is full or the collector is closed.
type ChannelCollector struct {
	mu     sync.RWMutex
	ch     chan ResolveEvent
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{
		ch: make(chan ResolveEvent, bufferSize),
	}
}

func (c *ChannelCollector) Collect(event ResolveEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		metrics.ResolveEventsDropped.Inc()
	}
}

func (c *ChannelCollector) Events() <-chan ResolveEvent {
	return c.ch
}

// Close is idempotent; pending events stay readable from Events.
func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Discard drops every event; used when event collection is turned off.
type Discard struct{}

func (Discard) Collect(ResolveEvent) {}
func (Discard) Close()               {}
