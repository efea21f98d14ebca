package models

import (
	"time"
)

// CommentState is the moderation state of a comment
type CommentState string

const (
	StatePending  CommentState = "pending"
	StateApproved CommentState = "approved"
	StateRejected CommentState = "rejected"
)

// ValidStates defines the closed moderation vocabulary
var ValidStates = map[CommentState]bool{
	StatePending:  true,
	StateApproved: true,
	StateRejected: true,
}

// Decision is a moderation decision. Pending is never a legal target.
type Decision string

const (
	DecisionApprove Decision = "approved"
	DecisionReject  Decision = "rejected"
)

// Valid reports whether d is a legal moderation target
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// State returns the state a comment moves to under this decision
func (d Decision) State() CommentState {
	return CommentState(d)
}

// SystemModerator is recorded as the moderator of automatic rejections
const SystemModerator = "system"

// Comment represents a citizen comment on one paragraph of a law document
type Comment struct {
	ID               string       `json:"id" db:"id"`
	DocumentID       string       `json:"document_id" db:"document_id"`
	ParagraphID      int          `json:"paragraph_id" db:"paragraph_id"`
	DisplayName      string       `json:"display_name" db:"display_name"`
	Content          string       `json:"content" db:"content"`
	SubmitterAddress string       `json:"-" db:"submitter_address"`
	UserAgent        string       `json:"-" db:"user_agent"`
	SubmittedAt      time.Time    `json:"submitted_at" db:"submitted_at"`
	State            CommentState `json:"state" db:"state"`
	ModeratedBy      string       `json:"moderated_by,omitempty" db:"moderated_by"`
	ModeratedAt      *time.Time   `json:"moderated_at,omitempty" db:"moderated_at"`
	RejectionReason  string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	SpamScore        float64      `json:"spam_score" db:"spam_score"`
}

// PublicComment is the projection of a comment that is safe to show to the public
type PublicComment struct {
	ID          string       `json:"id"`
	DocumentID  string       `json:"document_id"`
	ParagraphID int          `json:"paragraph_id"`
	DisplayName string       `json:"display_name"`
	Content     string       `json:"content"`
	SubmittedAt time.Time    `json:"submitted_at"`
	State       CommentState `json:"state"`
}

// Public returns the public projection of c
func (c *Comment) Public() PublicComment {
	return PublicComment{
		ID:          c.ID,
		DocumentID:  c.DocumentID,
		ParagraphID: c.ParagraphID,
		DisplayName: c.DisplayName,
		Content:     c.Content,
		SubmittedAt: c.SubmittedAt,
		State:       c.State,
	}
}

// ApplyDecision transitions c under decision d. Approving clears any
// previous rejection reason.
func (c *Comment) ApplyDecision(d Decision, moderator, reason string, at time.Time) {
	c.State = d.State()
	c.ModeratedBy = moderator
	moderatedAt := at
	c.ModeratedAt = &moderatedAt
	if d == DecisionApprove {
		c.RejectionReason = ""
	} else {
		c.RejectionReason = reason
	}
}

// SubmitRequest is a public comment submission
type SubmitRequest struct {
	DocumentID  string `json:"document_id"`
	ParagraphID int    `json:"paragraph_id"`
	DisplayName string `json:"display_name"`
	Content     string `json:"content"`
}

// RequestOrigin carries the implicit request context of a submission
type RequestOrigin struct {
	Address   string
	UserAgent string
}

// SubmitResponse is the uniform result of a public submission
type SubmitResponse struct {
	Success           bool           `json:"success"`
	Comment           *PublicComment `json:"comment,omitempty"`
	Error             string         `json:"error,omitempty"`
	ErrorCode         string         `json:"error_code,omitempty"`
	Fields            interface{}    `json:"fields,omitempty"`
	RetryAfterSeconds int            `json:"retry_after_seconds,omitempty"`
}
