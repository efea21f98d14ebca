package service

import (
	"context"
	"errors"

	"github.com/law-comments-api/internal/apperr"
	"github.com/law-comments-api/internal/metrics"
	"github.com/law-comments-api/internal/models"
	"github.com/law-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// moderationService is the concrete implementation of ModerationService
type moderationService struct {
	*core
	log zerolog.Logger
}

// newModerationService creates a new ModerationService
func newModerationService(c *core) *moderationService {
	return &moderationService{
		core: c,
		log:  c.log.With().Str("service", "moderation").Logger(),
	}
}

// authorize resolves the admin identity. Any failure, a missing authorizer
// or an empty identity is an UnauthorizedError.
func (c *core) authorize(ctx context.Context) (string, error) {
	if c.authorizer == nil {
		return "", &apperr.UnauthorizedError{Reason: "no admin authorizer configured"}
	}
	identity, err := c.authorizer.AdminIdentity(ctx)
	if err != nil {
		if apperr.IsUnauthorized(err) {
			return "", err
		}
		c.log.Warn().Err(err).Msg("Admin identity lookup failed")
		return "", &apperr.UnauthorizedError{Reason: "admin identity unavailable"}
	}
	if identity == "" {
		return "", &apperr.UnauthorizedError{Reason: "empty admin identity"}
	}
	return identity, nil
}

// scopeToActive defaults a listing or export to the active document when it exists
func (c *core) scopeToActive(ctx context.Context, filter *models.CommentFilter) error {
	if filter.DocumentID != "" {
		return nil
	}
	doc, err := c.repos.Document.GetActive(ctx)
	if err != nil {
		return storageErr("get active document", err)
	}
	if doc != nil {
		filter.DocumentID = doc.ID
	}
	return nil
}

// ListComments returns one page of the admin listing
func (s *moderationService) ListComments(ctx context.Context, filter models.CommentFilter, page models.PageRequest) (*models.CommentPage, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateFilter(&filter); err != nil {
		return nil, err
	}
	if err := s.scopeToActive(ctx, &filter); err != nil {
		return nil, err
	}

	result, err := s.repos.Comment.List(ctx, filter, s.page(page))
	if err != nil {
		return nil, storageErr("list comments", err)
	}
	return result, nil
}

// Moderate applies a decision to one comment
func (s *moderationService) Moderate(ctx context.Context, id string, req *models.ModerateRequest) (*models.Comment, error) {
	moderator, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateModeration(req.Decision, req.Reason); err != nil {
		return nil, err
	}

	comment, err := s.repos.Comment.Moderate(ctx, id, req.Decision, moderator, req.Reason, s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("comment", id)
	}
	if err != nil {
		return nil, storageErr("moderate comment", err)
	}

	metrics.ModerationsTotal.WithLabelValues(string(req.Decision), "single").Inc()
	s.log.Info().
		Str("comment_id", id).
		Str("decision", string(req.Decision)).
		Str("moderator", moderator).
		Msg("Comment moderated")

	s.afterWrite(ctx)
	return comment, nil
}

// BulkModerate applies one decision to many comments. Each id succeeds or
// fails on its own; repeated ids are processed once.
func (s *moderationService) BulkModerate(ctx context.Context, req *models.BulkModerateRequest) (*models.BulkModerateResult, error) {
	moderator, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateBulk(req); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.CommentIDs))
	seen := make(map[string]bool, len(req.CommentIDs))
	for _, id := range req.CommentIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	result, err := s.repos.Comment.BulkModerate(ctx, ids, req.Decision, moderator, req.Reason, s.now().UTC())
	if err != nil {
		return nil, storageErr("bulk moderate comments", err)
	}

	for i := range result.Results {
		item := &result.Results[i]
		if item.Success {
			continue
		}
		classified := itemError(item.ID, item.Err)
		item.Err = classified
		item.ErrorCode = apperr.Code(classified)
		if item.ErrorCode == apperr.CodeInternal {
			s.log.Error().Err(classified).Str("comment_id", item.ID).Msg("Bulk moderation item failed")
			item.Error = "storage failure"
		} else {
			item.Error = classified.Error()
		}
	}

	metrics.ModerationsTotal.WithLabelValues(string(req.Decision), "bulk").Add(float64(result.Succeeded))
	s.log.Info().
		Str("decision", string(req.Decision)).
		Str("moderator", moderator).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Bulk moderation completed")

	if result.Succeeded > 0 {
		s.afterWrite(ctx)
	}
	return result, nil
}

// Stats returns the comment stats of the active document, cached until the next write
func (s *moderationService) Stats(ctx context.Context) (*models.CommentStats, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	doc, err := s.activeDocument(ctx)
	if err != nil {
		return nil, err
	}

	if stats, ok := s.cache.Get(ctx, doc.ID); ok {
		return stats, nil
	}

	generation := s.cache.Generation(ctx)
	stats, err := s.repos.Comment.Stats(ctx, doc.ID)
	if err != nil {
		return nil, storageErr("compute stats", err)
	}
	stats.GeneratedAt = s.now().UTC()
	s.cache.Set(ctx, stats, generation)
	return stats, nil
}

func (s *moderationService) afterWrite(ctx context.Context) {
	s.cache.Invalidate(ctx)
	s.revalidate(ctx, PathPublicDocument, PathAdminComments)
}
