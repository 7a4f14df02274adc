package ratelimit

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("skip: redis not available at %s: %v", addr, err)
	}
	return client
}

func TestLimiter_SlidingWindow(t *testing.T) {
	client := setupRedis(t)
	l := NewLimiter(client)
	ctx := context.Background()

	key := "rl:test:" + strconv.FormatInt(time.Now().UnixNano(), 36)
	t.Cleanup(func() { client.Del(context.Background(), key) })
	rule := Rule{Limit: 2, Window: time.Second}

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, key, rule, "m"+strconv.Itoa(i))
		if err != nil || !ok {
			t.Fatalf("hit %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, retry, err := l.Allow(ctx, key, rule, "m2")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("3rd hit should be limited")
	}
	if retry <= 0 || retry > time.Second {
		t.Fatalf("retryAfter = %v", retry)
	}

	time.Sleep(rule.Window + 100*time.Millisecond)
	if ok, _, err := l.Allow(ctx, key, rule, "m3"); err != nil || !ok {
		t.Fatalf("after window: ok=%v err=%v", ok, err)
	}
}

func TestLimiter_RejectsInvalidRule(t *testing.T) {
	// 规则非法时不会碰 redis，nil client 也安全
	l := NewLimiter(nil)
	for _, rule := range []Rule{{Limit: 0, Window: time.Second}, {Limit: 1, Window: 0}} {
		if _, _, err := l.Allow(context.Background(), "k", rule, "m"); err == nil {
			t.Fatalf("rule %+v accepted", rule)
		}
	}
}
