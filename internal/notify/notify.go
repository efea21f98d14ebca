// Package notify delivers view revalidation requests after comment writes.
// Targets are a NATS subject, an HTTP webhook and a log sink; Multi fans a
// request out to all of them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/law-comments-api/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Target receives revalidation requests for a view path
type Target interface {
	Name() string
	Revalidate(ctx context.Context, path string) error
}

// Event is the payload published for each revalidated path
type Event struct {
	Path        string    `json:"path"`
	RequestedAt time.Time `json:"requested_at"`
}

// Multi delivers every request to all targets concurrently. A failing target
// does not stop the others; all failures are joined into the returned error.
type Multi struct {
	targets []Target
	log     zerolog.Logger
}

// NewMulti creates a fan-out over targets
func NewMulti(log zerolog.Logger, targets ...Target) *Multi {
	return &Multi{
		targets: targets,
		log:     log.With().Str("component", "revalidate").Logger(),
	}
}

// Targets returns the names of the configured targets
func (m *Multi) Targets() []string {
	names := make([]string, len(m.targets))
	for i, t := range m.targets {
		names[i] = t.Name()
	}
	return names
}

// Revalidate sends path to every target and waits for all of them
func (m *Multi) Revalidate(ctx context.Context, path string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, t := range m.targets {
		g.Go(func() error {
			if err := t.Revalidate(ctx, path); err != nil {
				metrics.RevalidationFailures.WithLabelValues(t.Name()).Inc()
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// LogTarget only records the request. Used when no delivery target is configured.
type LogTarget struct {
	log zerolog.Logger
}

// NewLogTarget creates a log-only target
func NewLogTarget(log zerolog.Logger) *LogTarget {
	return &LogTarget{log: log.With().Str("component", "revalidate").Logger()}
}

// Name implements Target
func (t *LogTarget) Name() string { return "log" }

// Revalidate implements Target
func (t *LogTarget) Revalidate(_ context.Context, path string) error {
	t.log.Debug().Str("path", path).Msg("View revalidation requested")
	return nil
}
