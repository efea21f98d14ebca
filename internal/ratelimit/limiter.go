// Package ratelimit provides fixed-window submission throttling keyed by
// submitter identity. The in-memory Limiter keeps counters for the lifetime
// of the process; RedisLimiter shares them between processes.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// Rule defines a rate limiting policy: the maximum number of requests
// allowed in the window, and the window duration.
type Rule struct {
	Limit  int           // max count in the window
	Window time.Duration // time window
}

// Result is the outcome of a single Check
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Checker is implemented by every limiter backend
type Checker interface {
	Check(ctx context.Context, identity string) (Result, error)
}

// Clock returns the current time
type Clock func() time.Time

const shardCount = 32

type entry struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Limiter is an in-memory fixed-window counter. Each identity hashes to one
// shard; a shard mutex makes read-check-increment atomic per identity.
type Limiter struct {
	rule   Rule
	now    Clock
	shards [shardCount]*shard
	log    zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces the wall clock, letting tests advance time
func WithClock(clock Clock) Option {
	return func(l *Limiter) { l.now = clock }
}

// WithLogger attaches a logger for reclamation events
func WithLogger(log zerolog.Logger) Option {
	return func(l *Limiter) { l.log = log.With().Str("component", "ratelimit").Logger() }
}

// NewLimiter creates an in-memory Limiter for rule
func NewLimiter(rule Rule, opts ...Option) *Limiter {
	l := &Limiter{
		rule: rule,
		now:  time.Now,
		log:  zerolog.Nop(),
	}
	for i := range l.shards {
		l.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) shardFor(identity string) *shard {
	return l.shards[xxhash.Sum64String(identity)%shardCount]
}

// Check counts one request for identity. The first request, or the first
// after the window expired, opens a new window. A request over the limit is
// refused and leaves the window untouched.
func (l *Limiter) Check(_ context.Context, identity string) (Result, error) {
	now := l.now()
	s := l.shardFor(identity)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[identity]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(l.rule.Window)}
		s.entries[identity] = e
		return Result{Allowed: true, Remaining: l.rule.Limit - 1, ResetAt: e.resetAt}, nil
	}

	if e.count >= l.rule.Limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Result{Allowed: true, Remaining: l.rule.Limit - e.count, ResetAt: e.resetAt}, nil
}

// Peek returns the current count and reset time for identity without
// counting a request. ok is false when no live window exists.
func (l *Limiter) Peek(identity string) (count int, resetAt time.Time, ok bool) {
	now := l.now()
	s := l.shardFor(identity)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[identity]
	if !exists || !now.Before(e.resetAt) {
		return 0, time.Time{}, false
	}
	return e.count, e.resetAt, true
}

// Len returns the number of tracked identities, expired or not
func (l *Limiter) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Reclaim removes expired windows and returns how many were purged. Shards
// are swept one at a time so a request only ever waits for one shard sweep.
func (l *Limiter) Reclaim() int {
	now := l.now()
	purged := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for identity, e := range s.entries {
			if !now.Before(e.resetAt) {
				delete(s.entries, identity)
				purged++
			}
		}
		s.mu.Unlock()
	}
	return purged
}

// StartReclaimer runs Reclaim every interval until ctx is done or Stop is
// called. It returns immediately.
func (l *Limiter) StartReclaimer(ctx context.Context, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running || interval <= 0 {
		return
	}
	l.running = true

	ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		l.log.Info().Dur("interval", interval).Msg("Rate limit reclaimer started")
		for {
			select {
			case <-ctx.Done():
				l.log.Info().Msg("Rate limit reclaimer stopping")
				return
			case <-ticker.C:
				if purged := l.Reclaim(); purged > 0 {
					l.log.Debug().Int("purged", purged).Msg("Reclaimed expired rate limit entries")
				}
			}
		}
	}()
}

// Stop stops the background reclaimer and waits for it to exit
func (l *Limiter) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}
	l.cancel()
	l.wg.Wait()
	l.running = false
}
