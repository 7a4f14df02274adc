package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = time.Second
	flushTimeout         = 5 * time.Second
)

// batcher 攒批写 sink：满 size 条或每 interval 写一次，以先到者为准。
type batcher struct {
	sink     Sink
	size     int
	interval time.Duration
}

func newBatcher(sink Sink) batcher {
	return batcher{sink: sink, size: defaultBatchSize, interval: defaultFlushInterval}
}

// drain returns when ctx is done or src is closed; the pending batch is
// written in both cases.
func (b batcher) drain(ctx context.Context, src <-chan ResolveEvent) {
	pending := make([]ResolveEvent, 0, b.size)
	tick := time.NewTicker(b.interval)
	defer tick.Stop()

	write := func() {
		if len(pending) > 0 {
			b.write(pending)
			pending = pending[:0]
		}
	}
	defer write()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			if pending = append(pending, ev); len(pending) >= b.size {
				write()
			}
		case <-tick.C:
			write()
		}
	}
}

// write 用独立的超时，Run 的 ctx 被取消后尾批也能写出去。
func (b batcher) write(batch []ResolveEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := b.sink.Write(ctx, batch); err != nil {
		slog.Error("resolve events: write failed", "count", len(batch), "err", err)
		return
	}
	slog.Debug("resolve events: written", "count", len(batch))
}

// Consumer drains a ChannelCollector into a Sink in batches.
type Consumer struct {
	batcher
	collector *ChannelCollector
}

func NewConsumer(sink Sink, collector *ChannelCollector) *Consumer {
	return &Consumer{batcher: newBatcher(sink), collector: collector}
}

// Run blocks until ctx is done or the collector is closed.
func (c *Consumer) Run(ctx context.Context) {
	c.drain(ctx, c.collector.Events())
}
