package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// KeyPrefix is the Redis key prefix for submission counters
const KeyPrefix = "rl:comment:"

// checkScript refuses without touching the counter once the limit is
// reached, otherwise increments it and opens the window on first use.
// Returns {allowed, count, ttl_ms}.
var checkScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if current >= limit then
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], window)
    ttl = window
  end
  return {0, current, ttl}
end
current = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], window)
  ttl = window
end
return {1, current, ttl}
`)

// RedisLimiter performs the fixed-window check against Redis so counters
// are shared across processes. Expiry is handled by key TTL.
type RedisLimiter struct {
	client *redis.Client
	rule   Rule
	now    Clock
	log    zerolog.Logger
}

// NewRedisLimiter creates a RedisLimiter backed by the given client
func NewRedisLimiter(client *redis.Client, rule Rule, log zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		rule:   rule,
		now:    time.Now,
		log:    log.With().Str("component", "ratelimit").Str("backend", "redis").Logger(),
	}
}

// Check counts one request for identity.
//
// On Redis errors the method fails open (Allowed is true) and returns the
// error so callers can log it; a Redis outage must not block legitimate
// submissions.
func (l *RedisLimiter) Check(ctx context.Context, identity string) (Result, error) {
	key := KeyPrefix + identity
	now := l.now()

	res, err := checkScript.Run(ctx, l.client, []string{key}, l.rule.Limit, l.rule.Window.Milliseconds()).Int64Slice()
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("Rate limit check failed, failing open")
		return Result{Allowed: true, Remaining: l.rule.Limit, ResetAt: now.Add(l.rule.Window)}, fmt.Errorf("ratelimit: redis check: %w", err)
	}
	if len(res) != 3 {
		return Result{Allowed: true, Remaining: l.rule.Limit, ResetAt: now.Add(l.rule.Window)}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}

	remaining := l.rule.Limit - int(res[1])
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   res[0] == 1,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration(res[2]) * time.Millisecond),
	}, nil
}
