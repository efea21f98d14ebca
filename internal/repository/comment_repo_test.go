package repository

import (
	"testing"
	"time"

	"github.com/law-comments-api/internal/models"
)

func TestBuildWhere(t *testing.T) {
	paragraph := 2
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snapshot := &models.Cursor{SubmittedAt: from.Add(time.Hour), ID: "c1"}

	w := buildWhere(models.CommentFilter{
		DocumentID:  "doc-1",
		State:       models.StatePending,
		ParagraphID: &paragraph,
		DateFrom:    &from,
	}, snapshot)

	want := " WHERE document_id = $1 AND state = $2 AND paragraph_id = $3 AND submitted_at >= $4 AND (submitted_at, id) <= ($5, $6)"
	if got := w.String(); got != want {
		t.Errorf("Unexpected where clause:\n got: %s\nwant: %s", got, want)
	}
	if len(w.args) != 6 {
		t.Fatalf("Expected 6 args, got %d", len(w.args))
	}
	if w.args[5] != "c1" {
		t.Errorf("Expected snapshot id as last arg, got %v", w.args[5])
	}
}

func TestBuildWhere_Empty(t *testing.T) {
	w := buildWhere(models.CommentFilter{}, nil)
	if w.String() != "" || len(w.args) != 0 {
		t.Errorf("Expected no clauses, got %q %v", w.String(), w.args)
	}
}

func TestOrderBy(t *testing.T) {
	if got := orderBy(models.SortOldest); got != " ORDER BY submitted_at ASC, id ASC" {
		t.Errorf("Unexpected ascending order: %s", got)
	}
	if got := orderBy(""); got != " ORDER BY submitted_at DESC, id DESC" {
		t.Errorf("Unexpected default order: %s", got)
	}
}
