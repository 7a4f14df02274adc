// Package migrate applies forward-only SQL migrations to Postgres.
package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// lockID 任意常量；多实例同时启动时用 advisory lock 串行化迁移。
const lockID = 0x7a6f6f726c

// Options selects where migration files come from. FS wins over Dir; with
// neither set, ./migrations is used.
type Options struct {
	FS  fs.FS
	Dir string
}

type Result struct {
	AppliedFiles []string
	SkippedFiles []string
}

// Up applies every .sql file whose base name is not yet in
// schema_migrations, ordered by base name, each in its own transaction.
func Up(ctx context.Context, db *pgxpool.Pool, opts Options) (*Result, error) {
	fsys, err := resolveFS(opts)
	if err != nil {
		return nil, err
	}
	files, err := ListSQLFiles(fsys)
	if err != nil {
		return nil, err
	}

	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		return nil, fmt.Errorf("migration lock: %w", err)
	}
	defer conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)

	if _, err := conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return nil, err
	}

	done, err := appliedVersions(ctx, conn.Conn())
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, name := range files {
		version := path.Base(name)
		if done[version] {
			res.SkippedFiles = append(res.SkippedFiles, version)
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", version, err)
		}
		if err := apply(ctx, conn.Conn(), version, string(body)); err != nil {
			return nil, err
		}
		res.AppliedFiles = append(res.AppliedFiles, version)
	}
	return res, nil
}

func appliedVersions(ctx context.Context, conn *pgx.Conn) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(versions))
	for _, v := range versions {
		done[v] = true
	}
	return done, nil
}

func apply(ctx context.Context, conn *pgx.Conn, version, body string) error {
	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, body); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		return nil
	})
}

// ListSQLFiles returns the .sql paths in fsys ordered by base name.
func ListSQLFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(path.Ext(p), ".sql") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return path.Base(files[i]) < path.Base(files[j])
	})
	return files, nil
}

func resolveFS(opts Options) (fs.FS, error) {
	if opts.FS != nil {
		return opts.FS, nil
	}
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "migrations"
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("migrations dir not found (tried %s)", dir)
	}
	return os.DirFS(dir), nil
}
