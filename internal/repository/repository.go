package repository

import (
	"context"
	"errors"
	"time"

	"github.com/law-comments-api/internal/database"
	"github.com/law-comments-api/internal/models"
)

var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an insert violates a uniqueness constraint
	ErrConflict = errors.New("conflict")
)

// HistoryLimit bounds the rows returned by RecentBySubmitter
const HistoryLimit = 200

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	// Create inserts a comment. Returns ErrConflict if the id already exists.
	Create(ctx context.Context, comment *models.Comment) error

	// GetByID returns nil, nil when the comment does not exist
	GetByID(ctx context.Context, id string) (*models.Comment, error)

	// List returns one page ordered by (submitted_at, id). Without a snapshot
	// in page, the newest matching row becomes the snapshot of the result.
	List(ctx context.Context, filter models.CommentFilter, page models.PageRequest) (*models.CommentPage, error)

	// Moderate applies decision to one comment. Returns ErrNotFound for unknown ids.
	Moderate(ctx context.Context, id string, decision models.Decision, moderator, reason string, at time.Time) (*models.Comment, error)

	// BulkModerate applies decision to each id independently
	BulkModerate(ctx context.Context, ids []string, decision models.Decision, moderator, reason string, at time.Time) (*models.BulkModerateResult, error)

	Stats(ctx context.Context, documentID string) (*models.CommentStats, error)

	// RecentBySubmitter returns the submitter's comments on a paragraph since
	// the given time, newest first, at most HistoryLimit rows.
	RecentBySubmitter(ctx context.Context, address, documentID string, paragraphID int, since time.Time) ([]*models.Comment, error)

	Count(ctx context.Context, filter models.CommentFilter) (int, error)
	StreamAll(ctx context.Context, filter models.CommentFilter, callback func(*models.Comment) error) error
}

// DocumentRepository defines the interface for law document lookups
type DocumentRepository interface {
	// GetActive returns nil, nil when no document is open for comments
	GetActive(ctx context.Context) (*models.LawDocument, error)
	GetByID(ctx context.Context, id string) (*models.LawDocument, error)

	// Save inserts or replaces a document. Saving an active document
	// deactivates every other one.
	Save(ctx context.Context, doc *models.LawDocument) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Comment  CommentRepository
	Document DocumentRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Comment:  NewCommentRepo(db),
		Document: NewDocumentRepo(db),
	}
}

// NewMemory creates repositories backed by process memory
func NewMemory() *Repositories {
	documents := NewMemoryDocumentRepo()
	return &Repositories{
		Comment:  NewMemoryCommentRepo(documents),
		Document: documents,
	}
}

// bulkModerate runs moderate for each id and collects per-id outcomes.
// Remaining ids are failed once ctx is done.
func bulkModerate(ctx context.Context, ids []string, moderate func(id string) error) *models.BulkModerateResult {
	result := &models.BulkModerateResult{Results: make([]models.BulkItemResult, 0, len(ids))}
	for _, id := range ids {
		err := ctx.Err()
		if err == nil {
			err = moderate(id)
		}

		item := models.BulkItemResult{ID: id, Success: err == nil, Err: err}
		if err != nil {
			item.Error = err.Error()
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Results = append(result.Results, item)
	}
	return result
}
