package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/law-comments-api/internal/metrics"
	"github.com/law-comments-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StatsKeyPrefix is the Redis key prefix for cached stats
const StatsKeyPrefix = "stats:comments:"

// StatsGenerationKey holds the invalidation counter shared by every process
const StatsGenerationKey = "stats:generation"

// setIfGeneration writes the entry only while the generation is unchanged.
// KEYS[1] generation key, KEYS[2] entry key; ARGV[1] generation, ARGV[2]
// payload, ARGV[3] ttl in milliseconds.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// RedisStats caches stats in Redis so every process sees the same
// invalidation. Redis failures are logged and treated as a miss.
type RedisStats struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisStats creates a Redis-backed stats cache
func NewRedisStats(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisStats {
	return &RedisStats{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "stats_cache").Logger(),
	}
}

// Get returns the cached stats of documentID
func (c *RedisStats) Get(ctx context.Context, documentID string) (*models.CommentStats, bool) {
	data, err := c.client.Get(ctx, StatsKeyPrefix+documentID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("Stats cache read failed")
		}
		metrics.StatsCacheResults.WithLabelValues("miss").Inc()
		return nil, false
	}

	var stats models.CommentStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.log.Warn().Err(err).Msg("Stats cache entry is corrupt")
		metrics.StatsCacheResults.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.StatsCacheResults.WithLabelValues("hit").Inc()
	return &stats, true
}

// Generation returns the shared invalidation counter. A read failure
// returns a value no Set will match.
func (c *RedisStats) Generation(ctx context.Context) uint64 {
	gen, err := c.client.Get(ctx, StatsGenerationKey).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0
		}
		c.log.Warn().Err(err).Msg("Stats cache generation read failed")
		return math.MaxUint64
	}
	return gen
}

// Set stores stats under its document id unless the generation moved on
func (c *RedisStats) Set(ctx context.Context, stats *models.CommentStats, generation uint64) {
	data, err := json.Marshal(stats)
	if err != nil {
		c.log.Warn().Err(err).Msg("Stats cache encode failed")
		return
	}
	keys := []string{StatsGenerationKey, StatsKeyPrefix + stats.DocumentID}
	args := []any{strconv.FormatUint(generation, 10), data, c.ttl.Milliseconds()}
	if err := setIfGeneration.Run(ctx, c.client, keys, args...).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Stats cache write failed")
	}
}

// Invalidate bumps the generation and deletes every cached stats key
func (c *RedisStats) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, StatsGenerationKey).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Stats cache generation bump failed")
	}
	iter := c.client.Scan(ctx, 0, StatsKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Msg("Stats cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Stats cache invalidation failed")
	}
}
