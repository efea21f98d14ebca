package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/law-comments-api/internal/models"
	"github.com/law-comments-api/internal/repository"
)

// MockCommentRepository is an in-memory CommentRepository with injectable
// failures and call counters
type MockCommentRepository struct {
	*repository.MemoryCommentRepo

	mu             sync.Mutex
	CreateError    error
	ListError      error
	StatsError     error
	HistoryError   error
	ModerateErrors map[string]error
	CreateCalls    int
	StatsCalls     int

	// AfterStats runs once the stats have been read from the store
	AfterStats func()
}

// Verify interface compliance
var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		MemoryCommentRepo: repository.NewMemoryCommentRepo(nil),
		ModerateErrors:    make(map[string]error),
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	m.CreateCalls++
	err := m.CreateError
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.MemoryCommentRepo.Create(ctx, comment)
}

func (m *MockCommentRepository) List(ctx context.Context, filter models.CommentFilter, page models.PageRequest) (*models.CommentPage, error) {
	m.mu.Lock()
	err := m.ListError
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryCommentRepo.List(ctx, filter, page)
}

func (m *MockCommentRepository) Moderate(ctx context.Context, id string, decision models.Decision, moderator, reason string, at time.Time) (*models.Comment, error) {
	m.mu.Lock()
	err := m.ModerateErrors[id]
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryCommentRepo.Moderate(ctx, id, decision, moderator, reason, at)
}

func (m *MockCommentRepository) BulkModerate(ctx context.Context, ids []string, decision models.Decision, moderator, reason string, at time.Time) (*models.BulkModerateResult, error) {
	result := &models.BulkModerateResult{}
	for _, id := range ids {
		_, err := m.Moderate(ctx, id, decision, moderator, reason, at)
		item := models.BulkItemResult{ID: id, Success: err == nil, Err: err}
		if err != nil {
			item.Error = err.Error()
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Results = append(result.Results, item)
	}
	return result, nil
}

func (m *MockCommentRepository) Stats(ctx context.Context, documentID string) (*models.CommentStats, error) {
	m.mu.Lock()
	m.StatsCalls++
	err, after := m.StatsError, m.AfterStats
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	stats, err := m.MemoryCommentRepo.Stats(ctx, documentID)
	if err == nil && after != nil {
		after()
	}
	return stats, err
}

func (m *MockCommentRepository) RecentBySubmitter(ctx context.Context, address, documentID string, paragraphID int, since time.Time) ([]*models.Comment, error) {
	m.mu.Lock()
	err := m.HistoryError
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryCommentRepo.RecentBySubmitter(ctx, address, documentID, paragraphID, since)
}

// MockDocumentRepository serves a fixed active document
type MockDocumentRepository struct {
	Documents map[string]*models.LawDocument
	Err       error
}

// Verify interface compliance
var _ repository.DocumentRepository = (*MockDocumentRepository)(nil)

func NewMockDocumentRepository(docs ...*models.LawDocument) *MockDocumentRepository {
	m := &MockDocumentRepository{Documents: make(map[string]*models.LawDocument)}
	for _, d := range docs {
		m.Documents[d.ID] = d
	}
	return m
}

func (m *MockDocumentRepository) GetActive(ctx context.Context) (*models.LawDocument, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, d := range m.Documents {
		if d.Active {
			return d, nil
		}
	}
	return nil, nil
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*models.LawDocument, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Documents[id], nil
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *models.LawDocument) error {
	if m.Err != nil {
		return m.Err
	}
	m.Documents[doc.ID] = doc
	return nil
}
