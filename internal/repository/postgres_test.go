package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/law-comments-api/internal/config"
	"github.com/law-comments-api/internal/database"
	"github.com/law-comments-api/internal/models"
	"github.com/law-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// postgresRepos connects to the database named by TEST_DB_HOST and friends,
// skipping the test when it is not configured.
func postgresRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping PostgreSQL integration test")
	}

	cfg := &config.DatabaseConfig{
		Host:         host,
		Port:         envOr("TEST_DB_PORT", "5432"),
		User:         envOr("TEST_DB_USER", "postgres"),
		Password:     envOr("TEST_DB_PASSWORD", "postgres"),
		Name:         envOr("TEST_DB_NAME", "law_comments_test"),
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 1,
		MaxLifetime:  time.Minute,
	}
	db, err := database.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return repository.New(db)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestPostgres_CommentLifecycle(t *testing.T) {
	repos := postgresRepos(t)
	ctx := context.Background()

	docID := "test-" + uuid.NewString()
	err := repos.Document.Save(ctx, &models.LawDocument{
		ID:         docID,
		Title:      "בדיקה",
		Paragraphs: []models.Paragraph{{ID: 1, Text: "א"}, {ID: 2, Text: "ב"}},
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	active, err := repos.Document.GetActive(ctx)
	if err != nil || active == nil || active.ID != docID || !active.HasParagraph(2) {
		t.Fatalf("Expected %s active, got %+v (%v)", docID, active, err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	ids := make([]string, 3)
	for i := range ids {
		id, _ := uuid.NewV7()
		ids[i] = id.String()
		err := repos.Comment.Create(ctx, &models.Comment{
			ID:               ids[i],
			DocumentID:       docID,
			ParagraphID:      1,
			DisplayName:      "ישראל",
			Content:          "טקסט תקין",
			SubmitterAddress: "10.0.0.1",
			SubmittedAt:      now.Add(time.Duration(i) * time.Second),
			State:            models.StatePending,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	err = repos.Comment.Create(ctx, &models.Comment{ID: ids[0], DocumentID: docID, ParagraphID: 1, State: models.StatePending, SubmittedAt: now})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	filter := models.CommentFilter{DocumentID: docID}
	page, err := repos.Comment.List(ctx, filter, models.PageRequest{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || page.Items[0].ID != ids[2] {
		t.Errorf("Unexpected first page: total=%d items=%d", page.Total, len(page.Items))
	}

	moderated, err := repos.Comment.Moderate(ctx, ids[0], models.DecisionReject, "admin", "ניסוח בלתי הולם", now)
	if err != nil {
		t.Fatalf("Moderate failed: %v", err)
	}
	if moderated.RejectionReason != "ניסוח בלתי הולם" {
		t.Errorf("Unexpected reason %q", moderated.RejectionReason)
	}

	_, err = repos.Comment.Moderate(ctx, "not-a-uuid", models.DecisionApprove, "admin", "", now)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	stats, err := repos.Comment.Stats(ctx, docID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Rejected != 1 || stats.Pending != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	recent, err := repos.Comment.RecentBySubmitter(ctx, "10.0.0.1", docID, 1, now.Add(-time.Hour))
	if err != nil || len(recent) != 3 {
		t.Errorf("Expected 3 history rows, got %d (%v)", len(recent), err)
	}
}
