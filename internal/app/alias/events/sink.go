package events

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sink persists a batch of events. The batch slice is reused after Write
// returns, so implementations must not retain it.
type Sink interface {
	Write(ctx context.Context, batch []ResolveEvent) error
}

// PostgresSink appends events to alias_hits in a single round trip.
type PostgresSink struct {
	db *pgxpool.Pool
}

func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db}
}

func (p *PostgresSink) Write(ctx context.Context, batch []ResolveEvent) error {
	if len(batch) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, e := range batch {
		b.Queue(`INSERT INTO alias_hits (alias, resolved_at, redirect, ip, user_agent, referer) VALUES ($1,$2,$3,$4,$5,$6)`,
			e.Alias, e.ResolvedAt, e.Redirect, e.IP, e.UserAgent, e.Referer)
	}
	br := p.db.SendBatch(ctx, b)
	for range batch {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

// LogSink summarises each batch in the log; used without a database.
type LogSink struct{}

func (LogSink) Write(ctx context.Context, batch []ResolveEvent) error {
	perAlias := make(map[string]int, len(batch))
	for _, e := range batch {
		perAlias[e.Alias]++
	}
	slog.Info("alias resolves", "events", len(batch), "aliases", perAlias)
	return nil
}
