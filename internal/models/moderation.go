package models

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// SortOrder is the submission-time ordering of a listing
type SortOrder string

const (
	SortNewest SortOrder = "desc"
	SortOldest SortOrder = "asc"
)

// CommentFilter narrows an admin listing
type CommentFilter struct {
	DocumentID  string
	State       CommentState
	ParagraphID *int
	DateFrom    *time.Time // inclusive
	DateTo      *time.Time // exclusive
	Sort        SortOrder
}

// Cursor is a (submitted_at, id) position in the listing order
type Cursor struct {
	SubmittedAt time.Time
	ID          string
}

// ErrInvalidCursor is returned for malformed snapshot tokens
var ErrInvalidCursor = errors.New("invalid snapshot cursor")

// Encode returns the opaque token form of the cursor
func (c Cursor) Encode() string {
	raw := c.SubmittedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Cursor.Encode
func DecodeCursor(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{SubmittedAt: at, ID: id}, nil
}

// Before reports whether c sorts strictly before other in ascending order
func (c Cursor) Before(other Cursor) bool {
	if c.SubmittedAt.Equal(other.SubmittedAt) {
		return c.ID < other.ID
	}
	return c.SubmittedAt.Before(other.SubmittedAt)
}

// PageRequest is a page number + size request. Snapshot bounds the listing
// to rows that existed when the first page was served.
type PageRequest struct {
	Page     int
	PageSize int
	Snapshot *Cursor
}

// Offset returns the row offset of the page
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// CommentPage is one page of an admin listing
type CommentPage struct {
	Items    []*Comment `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Snapshot string     `json:"snapshot,omitempty"`
}

// PublicCommentPage is one page of the public approved listing
type PublicCommentPage struct {
	Items    []PublicComment `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Snapshot string          `json:"snapshot,omitempty"`
}

// ModerateRequest is a single moderation action
type ModerateRequest struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
}

// BulkModerateRequest applies one decision to many comments
type BulkModerateRequest struct {
	CommentIDs []string `json:"comment_ids"`
	Decision   Decision `json:"decision"`
	Reason     string   `json:"reason,omitempty"`
}

// BulkItemResult is the outcome of one id in a bulk moderation
type BulkItemResult struct {
	ID        string `json:"id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Err       error  `json:"-"`
}

// BulkModerateResult reports per-id outcomes
type BulkModerateResult struct {
	Results   []BulkItemResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// ParagraphStats holds per-paragraph comment counts
type ParagraphStats struct {
	ParagraphID int `json:"paragraph_id"`
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
}

// CommentStats is the derived aggregate over all comments of a document
type CommentStats struct {
	DocumentID  string           `json:"document_id"`
	Total       int              `json:"total"`
	Pending     int              `json:"pending"`
	Approved    int              `json:"approved"`
	Rejected    int              `json:"rejected"`
	Paragraphs  []ParagraphStats `json:"paragraphs"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Add counts n comments of the given state on a paragraph. Paragraph
// entries are kept sorted by paragraph id.
func (s *CommentStats) Add(paragraphID int, state CommentState, n int) {
	var p *ParagraphStats
	for i := range s.Paragraphs {
		if s.Paragraphs[i].ParagraphID == paragraphID {
			p = &s.Paragraphs[i]
			break
		}
	}
	if p == nil {
		idx := len(s.Paragraphs)
		for i := range s.Paragraphs {
			if s.Paragraphs[i].ParagraphID > paragraphID {
				idx = i
				break
			}
		}
		s.Paragraphs = append(s.Paragraphs, ParagraphStats{})
		copy(s.Paragraphs[idx+1:], s.Paragraphs[idx:])
		s.Paragraphs[idx] = ParagraphStats{ParagraphID: paragraphID}
		p = &s.Paragraphs[idx]
	}

	p.Total += n
	s.Total += n
	switch state {
	case StatePending:
		p.Pending += n
		s.Pending += n
	case StateApproved:
		p.Approved += n
		s.Approved += n
	case StateRejected:
		p.Rejected += n
		s.Rejected += n
	}
}
