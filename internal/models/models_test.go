package models

import (
	"testing"
	"time"
)

func TestDecision_Valid(t *testing.T) {
	tests := []struct {
		decision Decision
		valid    bool
	}{
		{DecisionApprove, true},
		{DecisionReject, true},
		{Decision("pending"), false},
		{Decision(""), false},
		{Decision("APPROVED"), false},
	}
	for _, tt := range tests {
		if got := tt.decision.Valid(); got != tt.valid {
			t.Errorf("Decision(%q).Valid() = %v, want %v", tt.decision, got, tt.valid)
		}
	}
}

func TestComment_ApplyDecision(t *testing.T) {
	c := &Comment{ID: "c1", State: StatePending}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	c.ApplyDecision(DecisionReject, "admin-1", "ניסוח בלתי הולם", at)
	if c.State != StateRejected || c.RejectionReason != "ניסוח בלתי הולם" {
		t.Fatalf("Unexpected state after reject: %+v", c)
	}
	if c.ModeratedBy != "admin-1" || c.ModeratedAt == nil || !c.ModeratedAt.Equal(at) {
		t.Errorf("Moderator fields not recorded: %+v", c)
	}

	c.ApplyDecision(DecisionApprove, "admin-2", "ignored", at.Add(time.Minute))
	if c.State != StateApproved {
		t.Errorf("Expected approved, got %s", c.State)
	}
	if c.RejectionReason != "" {
		t.Errorf("Approving should clear the rejection reason, got %q", c.RejectionReason)
	}
}

func TestComment_PublicHidesAddress(t *testing.T) {
	c := &Comment{ID: "c1", SubmitterAddress: "10.0.0.1", UserAgent: "curl", Content: "טקסט תקין"}
	p := c.Public()
	if p.ID != "c1" || p.Content != "טקסט תקין" {
		t.Errorf("Unexpected projection: %+v", p)
	}
}

func TestDecodeCursor(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	token := Cursor{SubmittedAt: at, ID: "0190-abc"}.Encode()

	got, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("DecodeCursor failed: %v", err)
	}
	if !got.SubmittedAt.Equal(at) || got.ID != "0190-abc" {
		t.Errorf("Decoded cursor mismatch: %+v", got)
	}

	for _, bad := range []string{"", "!!!", "bm9waXBl", Cursor{SubmittedAt: at}.Encode()} {
		if _, err := DecodeCursor(bad); err == nil {
			t.Errorf("DecodeCursor(%q) should fail", bad)
		}
	}
}

func TestCursor_Before(t *testing.T) {
	at := time.Now()
	a := Cursor{SubmittedAt: at, ID: "a"}
	b := Cursor{SubmittedAt: at, ID: "b"}
	later := Cursor{SubmittedAt: at.Add(time.Millisecond), ID: "0"}

	if !a.Before(b) || b.Before(a) {
		t.Error("Ties should break on id")
	}
	if !b.Before(later) {
		t.Error("Earlier timestamp should sort first")
	}
}

func TestCommentStats_Add(t *testing.T) {
	var s CommentStats
	s.Add(5, StatePending, 2)
	s.Add(1, StateApproved, 1)
	s.Add(5, StateRejected, 1)
	s.Add(3, StateApproved, 4)

	if s.Total != 8 || s.Pending != 2 || s.Approved != 5 || s.Rejected != 1 {
		t.Errorf("Unexpected totals: %+v", s)
	}
	wantOrder := []int{1, 3, 5}
	if len(s.Paragraphs) != len(wantOrder) {
		t.Fatalf("Expected %d paragraphs, got %d", len(wantOrder), len(s.Paragraphs))
	}
	for i, id := range wantOrder {
		if s.Paragraphs[i].ParagraphID != id {
			t.Errorf("Paragraphs[%d] = %d, want %d", i, s.Paragraphs[i].ParagraphID, id)
		}
	}
	if s.Paragraphs[2].Total != 3 || s.Paragraphs[2].Rejected != 1 {
		t.Errorf("Unexpected paragraph 5 stats: %+v", s.Paragraphs[2])
	}
}
