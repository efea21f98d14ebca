package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/law-comments-api/internal/models"
)

// MemoryCommentRepo keeps comments in process memory. It is safe for
// concurrent use; stored values are copied on the way in and out.
type MemoryCommentRepo struct {
	mu        sync.RWMutex
	comments  map[string]*models.Comment
	documents *MemoryDocumentRepo
}

// NewMemoryCommentRepo creates an empty comment store. When documents is
// not nil, comments may only reference documents it knows.
func NewMemoryCommentRepo(documents *MemoryDocumentRepo) *MemoryCommentRepo {
	return &MemoryCommentRepo{
		comments:  make(map[string]*models.Comment),
		documents: documents,
	}
}

// MemoryDocumentRepo keeps law documents in process memory
type MemoryDocumentRepo struct {
	mu        sync.RWMutex
	documents map[string]*models.LawDocument
}

// NewMemoryDocumentRepo creates an empty document store
func NewMemoryDocumentRepo() *MemoryDocumentRepo {
	return &MemoryDocumentRepo{documents: make(map[string]*models.LawDocument)}
}

func copyComment(c *models.Comment) *models.Comment {
	cp := *c
	if c.ModeratedAt != nil {
		at := *c.ModeratedAt
		cp.ModeratedAt = &at
	}
	return &cp
}

func copyDocument(d *models.LawDocument) *models.LawDocument {
	cp := *d
	cp.Paragraphs = append([]models.Paragraph(nil), d.Paragraphs...)
	return &cp
}

func cursorOf(c *models.Comment) models.Cursor {
	return models.Cursor{SubmittedAt: c.SubmittedAt, ID: c.ID}
}

func matches(c *models.Comment, filter models.CommentFilter, snapshot *models.Cursor) bool {
	if filter.DocumentID != "" && c.DocumentID != filter.DocumentID {
		return false
	}
	if filter.State != "" && c.State != filter.State {
		return false
	}
	if filter.ParagraphID != nil && c.ParagraphID != *filter.ParagraphID {
		return false
	}
	if filter.DateFrom != nil && c.SubmittedAt.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && !c.SubmittedAt.Before(*filter.DateTo) {
		return false
	}
	if snapshot != nil && snapshot.Before(cursorOf(c)) {
		return false
	}
	return true
}

// selectLocked returns matching comments in listing order. Caller holds mu.
func (s *MemoryCommentRepo) selectLocked(filter models.CommentFilter, snapshot *models.Cursor) []*models.Comment {
	var out []*models.Comment
	for _, c := range s.comments {
		if matches(c, filter, snapshot) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Sort == models.SortOldest {
			return cursorOf(out[i]).Before(cursorOf(out[j]))
		}
		return cursorOf(out[j]).Before(cursorOf(out[i]))
	})
	return out
}

// Create inserts a new comment
func (s *MemoryCommentRepo) Create(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.comments[comment.ID]; exists {
		return ErrConflict
	}
	if s.documents != nil && !s.documents.exists(comment.DocumentID) {
		return ErrNotFound
	}
	s.comments[comment.ID] = copyComment(comment)
	return nil
}

// GetByID retrieves a comment by ID
func (s *MemoryCommentRepo) GetByID(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	return copyComment(c), nil
}

// List returns one page of comments bounded by the snapshot cursor
func (s *MemoryCommentRepo) List(_ context.Context, filter models.CommentFilter, page models.PageRequest) (*models.CommentPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := &models.CommentPage{
		Items:    []*models.Comment{},
		Page:     page.Page,
		PageSize: page.PageSize,
	}

	snapshot := page.Snapshot
	if snapshot == nil {
		var newest *models.Cursor
		for _, c := range s.comments {
			if !matches(c, filter, nil) {
				continue
			}
			if cur := cursorOf(c); newest == nil || newest.Before(cur) {
				newest = &cur
			}
		}
		if newest == nil {
			return result, nil
		}
		snapshot = newest
	}
	result.Snapshot = snapshot.Encode()

	all := s.selectLocked(filter, snapshot)
	result.Total = len(all)

	start := page.Offset()
	if start >= len(all) {
		return result, nil
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	for _, c := range all[start:end] {
		result.Items = append(result.Items, copyComment(c))
	}
	return result, nil
}

// Moderate applies a decision to a single comment
func (s *MemoryCommentRepo) Moderate(_ context.Context, id string, decision models.Decision, moderator, reason string, at time.Time) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.ApplyDecision(decision, moderator, reason, at)
	return copyComment(c), nil
}

// BulkModerate moderates each id independently
func (s *MemoryCommentRepo) BulkModerate(ctx context.Context, ids []string, decision models.Decision, moderator, reason string, at time.Time) (*models.BulkModerateResult, error) {
	return bulkModerate(ctx, ids, func(id string) error {
		_, err := s.Moderate(ctx, id, decision, moderator, reason, at)
		return err
	}), nil
}

// Stats aggregates comment counts by paragraph and state
func (s *MemoryCommentRepo) Stats(_ context.Context, documentID string) (*models.CommentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.CommentStats{DocumentID: documentID, Paragraphs: []models.ParagraphStats{}}
	for _, c := range s.comments {
		if c.DocumentID == documentID {
			stats.Add(c.ParagraphID, c.State, 1)
		}
	}
	return stats, nil
}

// RecentBySubmitter returns the duplicate detection history of a submitter
func (s *MemoryCommentRepo) RecentBySubmitter(_ context.Context, address, documentID string, paragraphID int, since time.Time) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Comment
	for _, c := range s.comments {
		if c.SubmitterAddress != address || c.DocumentID != documentID || c.ParagraphID != paragraphID {
			continue
		}
		if c.SubmittedAt.Before(since) {
			continue
		}
		out = append(out, copyComment(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if len(out) > HistoryLimit {
		out = out[:HistoryLimit]
	}
	return out, nil
}

// Count returns the number of comments matching filter
func (s *MemoryCommentRepo) Count(_ context.Context, filter models.CommentFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.comments {
		if matches(c, filter, nil) {
			n++
		}
	}
	return n, nil
}

// StreamAll streams matching comments in listing order. The callback runs
// on a copy taken under the read lock, so it may call back into the store.
func (s *MemoryCommentRepo) StreamAll(ctx context.Context, filter models.CommentFilter, callback func(*models.Comment) error) error {
	s.mu.RLock()
	selected := s.selectLocked(filter, nil)
	items := make([]*models.Comment, len(selected))
	for i, c := range selected {
		items[i] = copyComment(c)
	}
	s.mu.RUnlock()

	for _, c := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := callback(c); err != nil {
			return err
		}
	}
	return nil
}

// GetActive retrieves the document currently open for comments
func (s *MemoryDocumentRepo) GetActive(_ context.Context) (*models.LawDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.documents {
		if d.Active {
			return copyDocument(d), nil
		}
	}
	return nil, nil
}

// GetByID retrieves a document by ID
func (s *MemoryDocumentRepo) GetByID(_ context.Context, id string) (*models.LawDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[id]
	if !ok {
		return nil, nil
	}
	return copyDocument(d), nil
}

func (s *MemoryDocumentRepo) exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.documents[id]
	return ok
}

// Save inserts or replaces a document, deactivating others when it is active
func (s *MemoryDocumentRepo) Save(_ context.Context, doc *models.LawDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.Active {
		for id, d := range s.documents {
			if id != doc.ID {
				d.Active = false
			}
		}
	}
	s.documents[doc.ID] = copyDocument(doc)
	return nil
}
