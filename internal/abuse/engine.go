// Package abuse scores submissions for spam and detects repeated content.
// Evaluation is pure: callers supply the submitter's recent history.
package abuse

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Input is the submission under evaluation. Content is scored as submitted;
// Canonical, when set, is the stored form compared against history.
type Input struct {
	Identity    string
	ParagraphID int
	Content     string
	Canonical   string
	At          time.Time
}

// Prior is one earlier submission by the same identity
type Prior struct {
	Identity    string
	ParagraphID int
	Content     string
	At          time.Time
}

// Result is the outcome of an evaluation
type Result struct {
	SpamScore   float64
	IsDuplicate bool
	IsSpam      bool
	Signals     []string
}

// Reason returns the rejection reason recorded for automatically rejected
// comments, e.g. "auto: spam score 0.85 (links, spam_tokens)".
func (r Result) Reason() string {
	return fmt.Sprintf("auto: spam score %.2f (%s)", r.SpamScore, strings.Join(r.Signals, ", "))
}

// Options configures an Engine
type Options struct {
	SpamThreshold     float64
	DuplicateLookback time.Duration
	ExtraTokens       []string
}

// Engine evaluates submissions. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	threshold float64
	lookback  time.Duration
	tokens    []string
}

// NewEngine creates an Engine. The token list is DefaultSpamTokens plus
// opts.ExtraTokens, all normalized.
func NewEngine(opts Options) *Engine {
	seen := make(map[string]bool)
	tokens := make([]string, 0, len(DefaultSpamTokens)+len(opts.ExtraTokens))
	for _, raw := range append(append([]string{}, DefaultSpamTokens...), opts.ExtraTokens...) {
		tok := Normalize(raw)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return &Engine{
		threshold: opts.SpamThreshold,
		lookback:  opts.DuplicateLookback,
		tokens:    tokens,
	}
}

// Lookback returns the duplicate detection window
func (e *Engine) Lookback() time.Duration {
	return e.lookback
}

// Evaluate scores in and checks it against history. Only priors of the same
// identity and paragraph submitted within the lookback window before in.At
// count as duplicates.
func (e *Engine) Evaluate(in Input, history []Prior) Result {
	canonical := in.Canonical
	if canonical == "" {
		canonical = in.Content
	}
	normalized := Normalize(canonical)

	var res Result
	res.IsDuplicate = e.isDuplicate(in, normalized, history)
	res.SpamScore, res.Signals = e.Score(in.Content)
	res.IsSpam = res.SpamScore >= e.threshold
	return res
}

func (e *Engine) isDuplicate(in Input, normalized string, history []Prior) bool {
	if normalized == "" {
		return false
	}
	since := in.At.Add(-e.lookback)
	for _, p := range history {
		if p.Identity != in.Identity || p.ParagraphID != in.ParagraphID {
			continue
		}
		if p.At.Before(since) || p.At.After(in.At) {
			continue
		}
		if Normalize(p.Content) == normalized {
			return true
		}
	}
	return false
}

// Score returns the spam score of content in [0, 1] and the names of the
// signals that contributed to it.
func (e *Engine) Score(content string) (float64, []string) {
	var (
		score   float64
		signals []string
	)

	if n := countLinks(content); n > 0 {
		score += math.Min(float64(n)*linkWeight, linkCap)
		signals = append(signals, SignalLinks)
	}
	if hasCharFlood(content) {
		score += charFloodScore
		signals = append(signals, SignalCharFlood)
	}
	if hasWordFlood(content) {
		score += wordFloodScore
		signals = append(signals, SignalWordFlood)
	}
	if n := countTokens(Normalize(content), e.tokens); n > 0 {
		score += math.Min(float64(n)*tokenWeight, tokenCap)
		signals = append(signals, SignalTokens)
	}
	if isAllCaps(content) {
		score += allCapsScore
		signals = append(signals, SignalAllCaps)
	}

	score = math.Min(math.Max(score, 0), 1)
	// keep two decimals so persisted scores and reasons agree
	score = math.Round(score*100) / 100
	return score, signals
}
