package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/law-comments-api/internal/abuse"
	"github.com/law-comments-api/internal/config"
	"github.com/law-comments-api/internal/models"
	"github.com/law-comments-api/internal/ratelimit"
	"github.com/law-comments-api/internal/repository"
	"github.com/law-comments-api/internal/sanitize"
	"github.com/law-comments-api/internal/service"
	"github.com/rs/zerolog"
)

var sampleContent = strings.Repeat("אני מציע לתקן את <b>סעיף 3</b> כך שיחול גם על רשויות מקומיות. ", 20)

// BenchmarkSanitize benchmarks sanitizing a marked-up Hebrew comment
func BenchmarkSanitize(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		sanitize.Sanitize(sampleContent)
	}
}

// BenchmarkSpamScore benchmarks spam scoring of a long comment
func BenchmarkSpamScore(b *testing.B) {
	engine := abuse.NewEngine(abuse.Options{SpamThreshold: 0.7, DuplicateLookback: 24 * time.Hour})

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		engine.Score(sampleContent)
	}
}

// BenchmarkEvaluate benchmarks evaluation against a full history
func BenchmarkEvaluate(b *testing.B) {
	engine := abuse.NewEngine(abuse.Options{SpamThreshold: 0.7, DuplicateLookback: 24 * time.Hour})
	now := time.Now()

	history := make([]abuse.Prior, repository.HistoryLimit)
	for i := range history {
		history[i] = abuse.Prior{
			Identity:    "10.0.0.1",
			ParagraphID: 1,
			Content:     fmt.Sprintf("תגובה קודמת מספר %d", i),
			At:          now.Add(-time.Duration(i) * time.Minute),
		}
	}
	in := abuse.Input{Identity: "10.0.0.1", ParagraphID: 1, Content: sampleContent, At: now}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Evaluate(in, history)
	}
}

// BenchmarkLimiterCheck benchmarks concurrent rate limit checks over many identities
func BenchmarkLimiterCheck(b *testing.B) {
	limiter := ratelimit.NewLimiter(ratelimit.Rule{Limit: 5, Window: time.Minute})
	identities := make([]string, 1024)
	for i := range identities {
		identities[i] = fmt.Sprintf("10.0.%d.%d", i/256, i%256)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		i := 0
		for pb.Next() {
			limiter.Check(ctx, identities[i%len(identities)])
			i++
		}
	})
}

// BenchmarkListComments benchmarks the admin listing over the memory store
func BenchmarkListComments(b *testing.B) {
	repos := repository.NewMemory()
	ctx := context.Background()
	repos.Document.Save(ctx, &models.LawDocument{ID: "doc", Paragraphs: []models.Paragraph{{ID: 1}}, Active: true})

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5000; i++ {
		repos.Comment.Create(ctx, &models.Comment{
			ID:          fmt.Sprintf("%08d", i),
			DocumentID:  "doc",
			ParagraphID: 1,
			Content:     "תגובה",
			SubmittedAt: base.Add(time.Duration(i) * time.Millisecond),
			State:       models.StatePending,
		})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		repos.Comment.List(ctx, models.CommentFilter{State: models.StatePending}, models.PageRequest{Page: 3, PageSize: 20})
	}

	b.ReportMetric(float64(5000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkSubmitComment benchmarks the full submission pipeline
func BenchmarkSubmitComment(b *testing.B) {
	repos := repository.NewMemory()
	ctx := context.Background()
	repos.Document.Save(ctx, &models.LawDocument{ID: "doc", Paragraphs: []models.Paragraph{{ID: 1}}, Active: true})

	cfg := &config.Config{
		RateLimit:  config.RateLimitConfig{MaxPerWindow: 1 << 30, Window: time.Hour},
		Abuse:      config.AbuseConfig{SpamScoreThreshold: 0.7, DuplicateLookback: time.Hour},
		Content:    config.ContentConfig{MinLength: 3, MaxLength: 5000, MaxDisplayName: 100},
		Pagination: config.PaginationConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}
	services := service.NewServices(repos, cfg, service.Dependencies{}, zerolog.Nop())
	origin := models.RequestOrigin{Address: "10.0.0.1"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		services.Comment.SubmitComment(ctx, &models.SubmitRequest{
			ParagraphID: 1,
			DisplayName: "bench",
			Content:     fmt.Sprintf("%s %d", sampleContent, i),
		}, origin)
	}
}
