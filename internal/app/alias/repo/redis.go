package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"zoorl.local/internal/app/alias"
)

const redisKeyPrefix = "alias:"

// RedisRepo stores each record as a hash {url, ttl} under alias:<alias> and
// lets Redis expire it with EXPIREAT, so reads never see expired records.
type RedisRepo struct {
	client *redis.Client
}

func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

func redisKey(code string) string {
	return redisKeyPrefix + code
}

// expireAt 是 key 被 Redis 删除的时刻：记录在 Expiry 这一秒内仍然有效，
// 与 Record.ExpiredAt 以及 Postgres 的 expires_at >= now 一致。
func expireAt(rec alias.Record) time.Time {
	return time.Unix(rec.Expiry+1, 0)
}

func (r *RedisRepo) Save(ctx context.Context, rec alias.Record) error {
	key := redisKey(rec.Alias)
	// HSET 与 EXPIREAT 放在同一个 MULTI 里，避免出现没有过期时间的记录。
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "url", rec.URL, "ttl", strconv.FormatInt(rec.Expiry, 10))
		pipe.ExpireAt(ctx, key, expireAt(rec))
		return nil
	})
	if err != nil {
		slog.Error("redis save alias failed", "alias", rec.Alias, "err", err)
		return fmt.Errorf("save alias %s: %w", rec.Alias, err)
	}
	return nil
}

func (r *RedisRepo) GetByAlias(ctx context.Context, code string) (alias.Record, bool, error) {
	fields, err := r.client.HGetAll(ctx, redisKey(code)).Result()
	if err != nil {
		slog.Error("redis get alias failed", "alias", code, "err", err)
		return alias.Record{}, false, fmt.Errorf("get alias %s: %w", code, err)
	}
	if len(fields) == 0 {
		return alias.Record{}, false, nil
	}
	expiry, err := strconv.ParseInt(fields["ttl"], 10, 64)
	if err != nil {
		return alias.Record{}, false, fmt.Errorf("decode alias %s ttl %q: %w", code, fields["ttl"], err)
	}
	return alias.Record{Alias: code, URL: fields["url"], Expiry: expiry}, true, nil
}

func (r *RedisRepo) Aliases(ctx context.Context, fn func(alias string)) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		fn(iter.Val()[len(redisKeyPrefix):])
	}
	return iter.Err()
}
