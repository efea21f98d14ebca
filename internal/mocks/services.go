package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/law-comments-api/internal/models"
	"github.com/law-comments-api/internal/service"
)

// MockAuthorizer returns a fixed admin identity or error
type MockAuthorizer struct {
	Identity string
	Err      error
	Calls    int
}

// Verify interface compliance
var _ service.AdminAuthorizer = (*MockAuthorizer)(nil)

func (m *MockAuthorizer) AdminIdentity(ctx context.Context) (string, error) {
	m.Calls++
	return m.Identity, m.Err
}

// MockRevalidator records revalidated paths
type MockRevalidator struct {
	mu    sync.Mutex
	Err   error
	paths []string
}

// Verify interface compliance
var _ service.Revalidator = (*MockRevalidator)(nil)

func (m *MockRevalidator) Revalidate(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	return m.Err
}

// Paths returns the revalidated paths in call order
func (m *MockRevalidator) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	SubmitFunc       func(ctx context.Context, req *models.SubmitRequest, origin models.RequestOrigin) *models.SubmitResponse
	ListApprovedFunc func(ctx context.Context, paragraphID *int, page models.PageRequest) (*models.PublicCommentPage, error)
	Origins          []models.RequestOrigin
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func (m *MockCommentService) SubmitComment(ctx context.Context, req *models.SubmitRequest, origin models.RequestOrigin) *models.SubmitResponse {
	m.Origins = append(m.Origins, origin)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req, origin)
	}
	return &models.SubmitResponse{Success: true, Comment: &models.PublicComment{
		ID:          "test-comment-id",
		ParagraphID: req.ParagraphID,
		DisplayName: req.DisplayName,
		Content:     req.Content,
		State:       models.StatePending,
	}}
}

func (m *MockCommentService) ListApproved(ctx context.Context, paragraphID *int, page models.PageRequest) (*models.PublicCommentPage, error) {
	if m.ListApprovedFunc != nil {
		return m.ListApprovedFunc(ctx, paragraphID, page)
	}
	return &models.PublicCommentPage{Items: []models.PublicComment{}, Page: page.Page, PageSize: page.PageSize}, nil
}

// MockModerationService is a mock implementation of ModerationService
type MockModerationService struct {
	ListFunc     func(ctx context.Context, filter models.CommentFilter, page models.PageRequest) (*models.CommentPage, error)
	ModerateFunc func(ctx context.Context, id string, req *models.ModerateRequest) (*models.Comment, error)
	BulkFunc     func(ctx context.Context, req *models.BulkModerateRequest) (*models.BulkModerateResult, error)
	StatsFunc    func(ctx context.Context) (*models.CommentStats, error)

	LastFilter models.CommentFilter
	LastPage   models.PageRequest
}

// Verify interface compliance
var _ service.ModerationService = (*MockModerationService)(nil)

func (m *MockModerationService) ListComments(ctx context.Context, filter models.CommentFilter, page models.PageRequest) (*models.CommentPage, error) {
	m.LastFilter, m.LastPage = filter, page
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, page)
	}
	return &models.CommentPage{Items: []*models.Comment{}, Page: page.Page, PageSize: page.PageSize}, nil
}

func (m *MockModerationService) Moderate(ctx context.Context, id string, req *models.ModerateRequest) (*models.Comment, error) {
	if m.ModerateFunc != nil {
		return m.ModerateFunc(ctx, id, req)
	}
	return &models.Comment{ID: id, State: req.Decision.State(), RejectionReason: req.Reason}, nil
}

func (m *MockModerationService) BulkModerate(ctx context.Context, req *models.BulkModerateRequest) (*models.BulkModerateResult, error) {
	if m.BulkFunc != nil {
		return m.BulkFunc(ctx, req)
	}
	result := &models.BulkModerateResult{}
	for _, id := range req.CommentIDs {
		result.Results = append(result.Results, models.BulkItemResult{ID: id, Success: true})
		result.Succeeded++
	}
	return result, nil
}

func (m *MockModerationService) Stats(ctx context.Context) (*models.CommentStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.CommentStats{Paragraphs: []models.ParagraphStats{}}, nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamFunc func(ctx context.Context, w http.ResponseWriter, filter models.CommentFilter, format string) error
	Count      int
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func (m *MockExportService) StreamComments(ctx context.Context, w http.ResponseWriter, filter models.CommentFilter, format string) error {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, w, filter, format)
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Write([]byte("{}\n"))
	return nil
}

func (m *MockExportService) GetCount(ctx context.Context, filter models.CommentFilter) (int, error) {
	return m.Count, nil
}
