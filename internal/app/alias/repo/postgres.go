package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"zoorl.local/internal/app/alias"
)

// PostgresRepo stores records in url_aliases. Postgres has no row TTL, so
// expired rows are filtered on read and deleted by Purge.
type PostgresRepo struct {
	db    *pgxpool.Pool
	clock alias.Clock
}

func NewPostgresRepo(db *pgxpool.Pool, clock alias.Clock) *PostgresRepo {
	if clock == nil {
		clock = alias.SystemClock
	}
	return &PostgresRepo{db: db, clock: clock}
}

// Save 按 alias upsert：同一别名后写覆盖先写，不做唯一性检查。
func (p *PostgresRepo) Save(ctx context.Context, rec alias.Record) error {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := p.db.Exec(dbctx, `
INSERT INTO url_aliases (alias, url, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (alias) DO UPDATE SET url = EXCLUDED.url, expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
		rec.Alias, rec.URL, rec.Expiry)
	if err != nil {
		slog.Error("postgres save alias failed", "alias", rec.Alias, "err", err)
		return fmt.Errorf("save alias %s: %w", rec.Alias, err)
	}
	return nil
}

func (p *PostgresRepo) GetByAlias(ctx context.Context, code string) (alias.Record, bool, error) {
	dbctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var rec alias.Record
	err := p.db.
		QueryRow(dbctx, "SELECT alias, url, expires_at FROM url_aliases WHERE alias=$1 AND expires_at >= $2", code, p.clock.Now().Unix()).
		Scan(&rec.Alias, &rec.URL, &rec.Expiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return alias.Record{}, false, nil
		}
		slog.Error("postgres get alias failed", "alias", code, "err", err)
		return alias.Record{}, false, fmt.Errorf("get alias %s: %w", code, err)
	}
	return rec, true, nil
}

func (p *PostgresRepo) Purge(ctx context.Context) (int64, error) {
	dbctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tag, err := p.db.Exec(dbctx, "DELETE FROM url_aliases WHERE expires_at < $1", p.clock.Now().Unix())
	if err != nil {
		slog.Error("postgres purge failed", "err", err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresRepo) Aliases(ctx context.Context, fn func(alias string)) error {
	rows, err := p.db.Query(ctx, "SELECT alias FROM url_aliases WHERE expires_at >= $1", p.clock.Now().Unix())
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return err
		}
		fn(code)
	}
	return rows.Err()
}
