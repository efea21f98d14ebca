package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/law-comments-api/internal/abuse"
	"github.com/law-comments-api/internal/apperr"
	"github.com/law-comments-api/internal/metrics"
	"github.com/law-comments-api/internal/models"
	"github.com/law-comments-api/internal/sanitize"
	"github.com/rs/zerolog"
)

// unknownSubmitter keys the rate limiter when the address cannot be resolved
const unknownSubmitter = "unknown"

// commentService is the concrete implementation of CommentService
type commentService struct {
	*core
	log zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(c *core) *commentService {
	return &commentService{
		core: c,
		log:  c.log.With().Str("service", "comment").Logger(),
	}
}

// SubmitComment runs a public submission through validation, rate limiting,
// abuse evaluation and sanitization before persisting it. It never returns
// internal error detail; failures come back as an unsuccessful response.
func (s *commentService) SubmitComment(ctx context.Context, req *models.SubmitRequest, origin models.RequestOrigin) *models.SubmitResponse {
	comment, outcome, err := s.submit(ctx, req, origin)
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		return s.failure(err, req, origin)
	}

	public := comment.Public()
	if comment.State == models.StateRejected {
		// automatic rejections are not disclosed to the submitter
		public.State = models.StatePending
	}
	return &models.SubmitResponse{Success: true, Comment: &public}
}

func (s *commentService) submit(ctx context.Context, req *models.SubmitRequest, origin models.RequestOrigin) (*models.Comment, string, error) {
	now := s.now().UTC()

	doc, err := s.activeDocument(ctx)
	if err != nil {
		return nil, outcomeOf(err), err
	}

	if err := s.validator.ValidateSubmission(req, doc); err != nil {
		return nil, metrics.OutcomeInvalid, err
	}

	identity := origin.Address
	if identity == "" {
		identity = unknownSubmitter
	}

	// the limiter fails open
	limit, err := s.limiter.Check(ctx, identity)
	if err != nil {
		s.log.Warn().Err(err).Str("identity", identity).Msg("Rate limiter unavailable")
	} else if !limit.Allowed {
		metrics.RateLimitRejections.Inc()
		return nil, metrics.OutcomeRateLimited, &apperr.RateLimitedError{ResetAt: limit.ResetAt}
	}

	content := sanitize.Sanitize(req.Content)
	displayName := sanitize.Sanitize(req.DisplayName)

	history, err := s.repos.Comment.RecentBySubmitter(ctx, identity, doc.ID, req.ParagraphID, now.Add(-s.engine.Lookback()))
	if err != nil {
		return nil, metrics.OutcomeError, storageErr("load submitter history", err)
	}
	priors := make([]abuse.Prior, 0, len(history))
	for _, h := range history {
		priors = append(priors, abuse.Prior{
			Identity:    h.SubmitterAddress,
			ParagraphID: h.ParagraphID,
			Content:     h.Content,
			At:          h.SubmittedAt,
		})
	}

	verdict := s.engine.Evaluate(abuse.Input{
		Identity:    identity,
		ParagraphID: req.ParagraphID,
		Content:     req.Content,
		Canonical:   content,
		At:          now,
	}, priors)
	metrics.SpamScore.Observe(verdict.SpamScore)

	if verdict.IsDuplicate {
		return nil, metrics.OutcomeDuplicate, &apperr.DuplicateError{ParagraphID: req.ParagraphID}
	}

	if err := s.validator.ValidateSanitized(displayName, content); err != nil {
		return nil, metrics.OutcomeInvalid, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("generate comment id: %w", err)
	}

	comment := &models.Comment{
		ID:               id.String(),
		DocumentID:       doc.ID,
		ParagraphID:      req.ParagraphID,
		DisplayName:      displayName,
		Content:          content,
		SubmitterAddress: identity,
		UserAgent:        origin.UserAgent,
		SubmittedAt:      now,
		State:            models.StatePending,
		SpamScore:        verdict.SpamScore,
	}
	outcome := metrics.OutcomeAccepted
	if verdict.IsSpam {
		comment.ApplyDecision(models.DecisionReject, models.SystemModerator, verdict.Reason(), now)
		outcome = metrics.OutcomeSpam
		s.log.Info().
			Str("identity", identity).
			Int("paragraph_id", req.ParagraphID).
			Float64("spam_score", verdict.SpamScore).
			Strs("signals", verdict.Signals).
			Msg("Submission auto-rejected as spam")
	}

	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		return nil, metrics.OutcomeError, storageErr("create comment", err)
	}

	s.cache.Invalidate(ctx)
	s.revalidate(ctx, PathPublicDocument)

	s.log.Debug().
		Str("comment_id", comment.ID).
		Int("paragraph_id", comment.ParagraphID).
		Str("state", string(comment.State)).
		Msg("Comment submitted")

	return comment, outcome, nil
}

func outcomeOf(err error) string {
	switch apperr.Code(err) {
	case apperr.CodeValidation, apperr.CodeNotFound:
		return metrics.OutcomeInvalid
	case apperr.CodeRateLimited:
		return metrics.OutcomeRateLimited
	case apperr.CodeDuplicate:
		return metrics.OutcomeDuplicate
	default:
		return metrics.OutcomeError
	}
}

// failure translates err into the uniform public response shape
func (s *commentService) failure(err error, req *models.SubmitRequest, origin models.RequestOrigin) *models.SubmitResponse {
	resp := &models.SubmitResponse{
		Success:   false,
		Error:     apperr.PublicMessage(err),
		ErrorCode: apperr.Code(err),
	}

	var (
		validationErr *apperr.ValidationError
		limited       *apperr.RateLimitedError
	)
	switch {
	case errors.As(err, &validationErr):
		resp.Fields = validationErr.Fields
	case errors.As(err, &limited):
		resp.RetryAfterSeconds = int(limited.RetryAfter(s.now()).Seconds())
	}

	if resp.ErrorCode == apperr.CodeInternal {
		s.log.Error().Err(err).
			Str("address", origin.Address).
			Int("paragraph_id", req.ParagraphID).
			Msg("Comment submission failed")
	}
	return resp
}

// ListApproved returns one page of the public approved listing
func (s *commentService) ListApproved(ctx context.Context, paragraphID *int, page models.PageRequest) (*models.PublicCommentPage, error) {
	doc, err := s.activeDocument(ctx)
	if err != nil {
		return nil, err
	}
	if paragraphID != nil && !doc.HasParagraph(*paragraphID) {
		return nil, apperr.NewValidationError("paragraph_id", "paragraph does not exist in the document")
	}

	filter := models.CommentFilter{
		DocumentID:  doc.ID,
		State:       models.StateApproved,
		ParagraphID: paragraphID,
		Sort:        models.SortNewest,
	}
	result, err := s.repos.Comment.List(ctx, filter, s.page(page))
	if err != nil {
		return nil, storageErr("list approved comments", err)
	}

	out := &models.PublicCommentPage{
		Items:    make([]models.PublicComment, 0, len(result.Items)),
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
		Snapshot: result.Snapshot,
	}
	for _, c := range result.Items {
		out.Items = append(out.Items, c.Public())
	}
	return out, nil
}
