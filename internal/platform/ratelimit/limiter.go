// Package ratelimit implements a Redis sliding-window limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule 在 Window 内最多允许 Limit 次。
type Rule struct {
	Limit  int
	Window time.Duration
}

// ZSET 滑动窗口：score 为毫秒时间戳，member 每次请求唯一。
// 先清掉窗口外的记录再计数，未超限才写入；超限时按最老一条算出还要等多久。
var slidingWindow = redis.NewScript(`
local key, now, window, limit, member = KEYS[1], tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
if redis.call("ZCARD", key) < limit then
  redis.call("ZADD", key, now, member)
  redis.call("PEXPIRE", key, window)
  return {1, 0}
end

local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
local wait = window
if oldest[2] then
  wait = math.max(0, tonumber(oldest[2]) + window - now)
end
return {0, wait}
`)

type Limiter struct {
	client redis.Scripter
	now    func() time.Time
}

func NewLimiter(client redis.Scripter) *Limiter {
	return &Limiter{client: client, now: time.Now}
}

// Allow records one hit for key when it fits the rule. retryAfter is only
// set when the hit was refused.
func (l *Limiter) Allow(ctx context.Context, key string, rule Rule, member string) (allowed bool, retryAfter time.Duration, err error) {
	if rule.Limit <= 0 || rule.Window <= 0 {
		return false, 0, fmt.Errorf("ratelimit: invalid rule %+v", rule)
	}
	out, err := slidingWindow.Run(ctx, l.client, []string{key},
		l.now().UnixMilli(), rule.Window.Milliseconds(), rule.Limit, member).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(out) != 2 {
		return false, 0, fmt.Errorf("ratelimit: unexpected script result %v", out)
	}
	return out[0] == 1, time.Duration(out[1]) * time.Millisecond, nil
}
