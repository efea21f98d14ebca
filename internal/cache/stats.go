// Package cache holds the comment statistics cache. Entries are dropped on
// every state-changing write, so a TTL only bounds staleness from writers
// in other processes.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/law-comments-api/internal/metrics"
	"github.com/law-comments-api/internal/models"
)

type statsEntry struct {
	stats     *models.CommentStats
	expiresAt time.Time
}

// MemoryStats caches stats per document in process memory
type MemoryStats struct {
	mu         sync.RWMutex
	entries    map[string]statsEntry
	generation uint64
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStats creates a cache whose entries live for ttl. A ttl of zero
// keeps entries until invalidated.
func NewMemoryStats(ttl time.Duration) *MemoryStats {
	return &MemoryStats{
		entries: make(map[string]statsEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func copyStats(s *models.CommentStats) *models.CommentStats {
	cp := *s
	cp.Paragraphs = append([]models.ParagraphStats(nil), s.Paragraphs...)
	return &cp
}

// Get returns the cached stats of documentID
func (c *MemoryStats) Get(_ context.Context, documentID string) (*models.CommentStats, bool) {
	c.mu.RLock()
	e, ok := c.entries[documentID]
	c.mu.RUnlock()

	if !ok || (!e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)) {
		metrics.StatsCacheResults.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.StatsCacheResults.WithLabelValues("hit").Inc()
	return copyStats(e.stats), true
}

// Generation returns the current invalidation generation
func (c *MemoryStats) Generation(_ context.Context) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Set stores stats under its document id unless an invalidation happened
// after generation was read.
func (c *MemoryStats) Set(_ context.Context, stats *models.CommentStats, generation uint64) {
	e := statsEntry{stats: copyStats(stats)}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.entries[stats.DocumentID] = e
}

// Invalidate drops every cached entry and starts a new generation
func (c *MemoryStats) Invalidate(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]statsEntry)
	c.generation++
	c.mu.Unlock()
}
