// Package janitor deletes expired aliases from backends that have no native expiry.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"zoorl.local/internal/app/alias/repo"
	"zoorl.local/internal/platform/metrics"
)

type Janitor struct {
	purger   repo.Purger
	interval time.Duration
}

func New(purger repo.Purger, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Janitor{purger: purger, interval: interval}
}

// Run purges once immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	n, err := j.purger.Purge(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("janitor: purge failed", "err", err)
		}
		return
	}
	if n > 0 {
		metrics.AliasPurged.Add(float64(n))
		slog.Info("janitor: purged expired aliases", "count", n)
	}
}
