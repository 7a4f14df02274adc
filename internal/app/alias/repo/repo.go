// Package repo holds the alias.Repository backends: memory, Postgres and Redis.
package repo

import (
	"context"
	"embed"
)

// Migrations 是 Postgres 后端需要的建表脚本，按文件名顺序执行。
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Lister enumerates live aliases; used to warm the bloom filter at startup.
type Lister interface {
	Aliases(ctx context.Context, fn func(alias string)) error
}

// Purger deletes expired records for backends without native expiry.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}
