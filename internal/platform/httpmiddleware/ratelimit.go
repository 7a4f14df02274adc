package httpmiddleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"zoorl.local/gee"
	"zoorl.local/internal/platform/ratelimit"
)

// Allower is satisfied by *ratelimit.Limiter.
type Allower interface {
	Allow(ctx context.Context, key string, rule ratelimit.Rule, member string) (bool, time.Duration, error)
}

// rateLimitBudget 限流检查的最长耗时，超时按失败处理（放行）。
const rateLimitBudget = 50 * time.Millisecond

var memberSeq atomic.Uint64

// RateLimit limits each client IP to rule on the routes it wraps. A nil
// limiter disables the check; limiter errors let the request through.
func RateLimit(limiter Allower, prefix string, rule ratelimit.Rule) gee.HandlerFunc {
	if limiter == nil {
		return func(ctx *gee.Context) { ctx.Next() }
	}
	limit := strconv.Itoa(rule.Limit)
	return func(ctx *gee.Context) {
		key := "rl:" + prefix + ":" + ctx.ClientIP()

		checkCtx, cancel := context.WithTimeout(ctx.Req.Context(), rateLimitBudget)
		allowed, wait, err := limiter.Allow(checkCtx, key, rule, nextMember())
		cancel()

		switch {
		case err != nil:
			slog.Warn("rate limit check failed, allowing request", "key", key, "err", err)
		case !allowed:
			ctx.SetHeader("X-RateLimit-Limit", limit)
			if wait > 0 {
				ctx.SetHeader("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			ctx.AbortWithError(http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}

// nextMember 在 sorted set 里必须唯一，否则 ZADD 会覆盖同一个 member。
func nextMember() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36) + "." + strconv.FormatUint(memberSeq.Add(1), 36)
}
