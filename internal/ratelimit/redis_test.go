package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLimiter(client, Rule{Limit: 1, Window: time.Minute}, zerolog.Nop())
	res, err := l.Check(context.Background(), "a")
	if err == nil {
		t.Fatal("Expected an error from an unreachable redis")
	}
	if !res.Allowed {
		t.Error("Limiter should fail open when redis is unavailable")
	}
}

func TestRedisLimiter_Window(t *testing.T) {
	client := redisClient(t)
	l := NewRedisLimiter(client, Rule{Limit: 2, Window: time.Minute}, zerolog.Nop())
	ctx := context.Background()
	identity := "test-" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, KeyPrefix+identity) })

	for i := 0; i < 2; i++ {
		res, err := l.Check(ctx, identity)
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}

	res, err := l.Check(ctx, identity)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if res.Allowed {
		t.Error("Third request should be refused")
	}
	if res.ResetAt.Before(time.Now()) {
		t.Errorf("ResetAt should be in the future, got %v", res.ResetAt)
	}

	count, err := client.Get(ctx, KeyPrefix+identity).Int()
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Refusal should not increment the counter, got %d", count)
	}
}
