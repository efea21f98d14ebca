// Package metrics provides Prometheus instrumentation for comment intake
// and moderation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes
const (
	OutcomeAccepted    = "accepted"
	OutcomeSpam        = "spam"
	OutcomeDuplicate   = "duplicate"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)

var (
	// SubmissionsTotal counts public submissions by outcome
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "law_comments_submissions_total",
		Help: "Total number of comment submissions",
	}, []string{"outcome"})

	// ModerationsTotal counts moderation decisions, labeled by decision
	// and by source ("single", "bulk")
	ModerationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "law_comments_moderations_total",
		Help: "Total number of moderation decisions applied",
	}, []string{"decision", "source"})

	// RateLimitRejections counts submissions refused by the rate limiter
	RateLimitRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "law_comments_rate_limit_rejections_total",
		Help: "Submissions refused because the submitter exhausted the window",
	})

	// RevalidationFailures counts failed view revalidations by target
	RevalidationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "law_comments_revalidation_failures_total",
		Help: "View revalidations that failed",
	}, []string{"target"})

	// SpamScore records the spam score of every evaluated submission
	SpamScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "law_comments_spam_score",
		Help:    "Spam score of evaluated submissions",
		Buckets: []float64{0, .1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
	})

	// StatsCacheResults counts stats cache lookups by result ("hit", "miss")
	StatsCacheResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "law_comments_stats_cache_total",
		Help: "Stats cache lookups",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		ModerationsTotal,
		RateLimitRejections,
		RevalidationFailures,
		SpamScore,
		StatsCacheResults,
	)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
