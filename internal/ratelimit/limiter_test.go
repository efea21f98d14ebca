package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(Rule{Limit: 3, Window: time.Minute}, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Check(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("Request %d should be allowed", i+1)
		}
		if res.Remaining != 2-i {
			t.Errorf("Request %d: remaining = %d, want %d", i+1, res.Remaining, 2-i)
		}
	}

	res, _ := l.Check(ctx, "1.2.3.4")
	if res.Allowed {
		t.Error("Fourth request should be refused")
	}
	if !res.ResetAt.Equal(clock.Now().Add(time.Minute)) {
		t.Errorf("ResetAt = %v, want window start + 1m", res.ResetAt)
	}
}

func TestLimiter_RefusalDoesNotExtendWindow(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(Rule{Limit: 1, Window: time.Minute}, WithClock(clock.Now))
	ctx := context.Background()

	first, _ := l.Check(ctx, "a")
	clock.Advance(30 * time.Second)
	refused, _ := l.Check(ctx, "a")
	if refused.Allowed {
		t.Fatal("Second request should be refused")
	}
	if !refused.ResetAt.Equal(first.ResetAt) {
		t.Errorf("Refusal moved the window: %v != %v", refused.ResetAt, first.ResetAt)
	}
	if count, _, _ := l.Peek("a"); count != 1 {
		t.Errorf("Refusal changed the count to %d", count)
	}
}

func TestLimiter_WindowExpiry(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(Rule{Limit: 2, Window: time.Minute}, WithClock(clock.Now))
	ctx := context.Background()

	l.Check(ctx, "a")
	l.Check(ctx, "a")
	if res, _ := l.Check(ctx, "a"); res.Allowed {
		t.Fatal("Expected refusal inside the window")
	}

	clock.Advance(time.Minute)
	res, _ := l.Check(ctx, "a")
	if !res.Allowed || res.Remaining != 1 {
		t.Errorf("Expected a fresh window at the reset instant, got %+v", res)
	}
}

func TestLimiter_IdentitiesAreIndependent(t *testing.T) {
	l := NewLimiter(Rule{Limit: 1, Window: time.Minute}, WithClock(newFakeClock().Now))
	ctx := context.Background()

	l.Check(ctx, "a")
	if res, _ := l.Check(ctx, "b"); !res.Allowed {
		t.Error("Identity b should have its own window")
	}
	if res, _ := l.Check(ctx, "a"); res.Allowed {
		t.Error("Identity a should be exhausted")
	}
}

func TestLimiter_ConcurrentChecksNeverExceedLimit(t *testing.T) {
	const limit = 10
	l := NewLimiter(Rule{Limit: limit, Window: time.Hour})
	ctx := context.Background()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, _ := l.Check(ctx, "shared"); res.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Errorf("allowed = %d, want exactly %d", allowed, limit)
	}
}

func TestLimiter_Reclaim(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(Rule{Limit: 5, Window: time.Minute}, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		l.Check(ctx, fmt.Sprintf("10.0.0.%d", i))
	}
	clock.Advance(30 * time.Second)
	l.Check(ctx, "late")

	if purged := l.Reclaim(); purged != 0 {
		t.Errorf("Nothing should expire yet, purged %d", purged)
	}

	clock.Advance(31 * time.Second)
	if purged := l.Reclaim(); purged != 50 {
		t.Errorf("purged = %d, want 50", purged)
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
	if _, _, ok := l.Peek("late"); !ok {
		t.Error("Live window should survive reclamation")
	}
}

func TestLimiter_StartStopReclaimer(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(Rule{Limit: 1, Window: time.Millisecond}, WithClock(clock.Now))
	l.Check(context.Background(), "a")
	clock.Advance(time.Second)

	l.StartReclaimer(context.Background(), 5*time.Millisecond)
	l.StartReclaimer(context.Background(), 5*time.Millisecond) // second start is a no-op

	deadline := time.Now().Add(2 * time.Second)
	for l.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	l.Stop()
	l.Stop()

	if l.Len() != 0 {
		t.Errorf("Reclaimer did not purge expired entry, Len = %d", l.Len())
	}
}
