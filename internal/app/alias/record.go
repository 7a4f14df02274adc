package alias

import (
	"context"
	"time"
)

// Record 是持久化的别名记录：别名 -> 原始 URL，以及过期时间（UNIX 秒）。
//
// Alias 永远可以由 ComputeAlias(URL) 重新算出；创建后不再修改。
type Record struct {
	Alias  string
	URL    string
	Expiry int64
}

// ExpiredAt reports whether now is past the record's expiry second.
func (r Record) ExpiredAt(now time.Time) bool {
	return now.Unix() > r.Expiry
}

// Repository is the storage contract consumed by the workflows.
//
// Save upserts by alias (last write wins) and must be durable before it
// returns. GetByAlias returns ok=false when nothing was stored under the
// alias or the stored record has expired; backends without native expiry
// filter on read. err is reserved for storage failures.
type Repository interface {
	Save(ctx context.Context, rec Record) error
	GetByAlias(ctx context.Context, alias string) (rec Record, ok bool, err error)
}
