package service

import (
	"context"
	"net/http"
	"time"

	"github.com/law-comments-api/internal/abuse"
	"github.com/law-comments-api/internal/cache"
	"github.com/law-comments-api/internal/config"
	"github.com/law-comments-api/internal/models"
	"github.com/law-comments-api/internal/ratelimit"
	"github.com/law-comments-api/internal/repository"
	"github.com/law-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

// Views revalidated after writes
const (
	PathPublicDocument = "/"
	PathAdminComments  = "/admin/comments"
)

// CommentService defines the public comment operations
type CommentService interface {
	SubmitComment(ctx context.Context, req *models.SubmitRequest, origin models.RequestOrigin) *models.SubmitResponse
	ListApproved(ctx context.Context, paragraphID *int, page models.PageRequest) (*models.PublicCommentPage, error)
}

// ModerationService defines the admin moderation operations. Every call
// resolves the admin identity first and fails closed.
type ModerationService interface {
	ListComments(ctx context.Context, filter models.CommentFilter, page models.PageRequest) (*models.CommentPage, error)
	Moderate(ctx context.Context, id string, req *models.ModerateRequest) (*models.Comment, error)
	BulkModerate(ctx context.Context, req *models.BulkModerateRequest) (*models.BulkModerateResult, error)
	Stats(ctx context.Context) (*models.CommentStats, error)
}

// ExportService defines the admin export operations
type ExportService interface {
	StreamComments(ctx context.Context, w http.ResponseWriter, filter models.CommentFilter, format string) error
	GetCount(ctx context.Context, filter models.CommentFilter) (int, error)
}

// AdminAuthorizer resolves the admin identity of the caller in ctx
type AdminAuthorizer interface {
	AdminIdentity(ctx context.Context) (string, error)
}

// Revalidator refreshes a rendered view after a write
type Revalidator interface {
	Revalidate(ctx context.Context, path string) error
}

// StatsCache caches computed comment stats per document. Invalidate bumps
// the generation; Set discards stats computed under an older generation.
type StatsCache interface {
	Get(ctx context.Context, documentID string) (*models.CommentStats, bool)
	Generation(ctx context.Context) uint64
	Set(ctx context.Context, stats *models.CommentStats, generation uint64)
	Invalidate(ctx context.Context)
}

// Dependencies are the collaborators the services are built from. Nil
// fields get in-process defaults, except Authorizer: without one every
// admin call is refused.
type Dependencies struct {
	Limiter     ratelimit.Checker
	Authorizer  AdminAuthorizer
	Revalidator Revalidator
	StatsCache  StatsCache
	Clock       func() time.Time
}

// Services holds all service interfaces
type Services struct {
	Comment    CommentService
	Moderation ModerationService
	Export     ExportService
}

// core is shared by the concrete services
type core struct {
	repos       *repository.Repositories
	validator   *validation.Validator
	engine      *abuse.Engine
	limiter     ratelimit.Checker
	authorizer  AdminAuthorizer
	revalidator Revalidator
	cache       StatsCache
	pagination  config.PaginationConfig
	now         func() time.Time
	log         zerolog.Logger
}

type noopRevalidator struct{}

func (noopRevalidator) Revalidate(context.Context, string) error { return nil }

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, deps Dependencies, log zerolog.Logger) *Services {
	c := &core{
		repos: repos,
		validator: validation.NewValidator(validation.Limits{
			MinContentLength: cfg.Content.MinLength,
			MaxContentLength: cfg.Content.MaxLength,
			MaxDisplayName:   cfg.Content.MaxDisplayName,
		}),
		engine: abuse.NewEngine(abuse.Options{
			SpamThreshold:     cfg.Abuse.SpamScoreThreshold,
			DuplicateLookback: cfg.Abuse.DuplicateLookback,
			ExtraTokens:       cfg.Abuse.ExtraSpamTokens,
		}),
		limiter:     deps.Limiter,
		authorizer:  deps.Authorizer,
		revalidator: deps.Revalidator,
		cache:       deps.StatsCache,
		pagination:  cfg.Pagination,
		now:         deps.Clock,
		log:         log,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.limiter == nil {
		c.limiter = ratelimit.NewLimiter(ratelimit.Rule{
			Limit:  cfg.RateLimit.MaxPerWindow,
			Window: cfg.RateLimit.Window,
		}, ratelimit.WithClock(c.now))
	}
	if c.revalidator == nil {
		c.revalidator = noopRevalidator{}
	}
	if c.cache == nil {
		c.cache = cache.NewMemoryStats(cfg.Abuse.StatsCacheTTL)
	}

	return &Services{
		Comment:    newCommentService(c),
		Moderation: newModerationService(c),
		Export:     newExportService(c),
	}
}

// page clamps a page request to the configured bounds
func (c *core) page(p models.PageRequest) models.PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = c.pagination.DefaultPageSize
	}
	if p.PageSize > c.pagination.MaxPageSize {
		p.PageSize = c.pagination.MaxPageSize
	}
	return p
}

// revalidate refreshes views after a committed write. Failures are logged only.
func (c *core) revalidate(ctx context.Context, paths ...string) {
	for _, path := range paths {
		if err := c.revalidator.Revalidate(ctx, path); err != nil {
			c.log.Warn().Err(err).Str("path", path).Msg("View revalidation failed")
		}
	}
}

// activeDocument returns the document open for comments or a NotFoundError
func (c *core) activeDocument(ctx context.Context) (*models.LawDocument, error) {
	doc, err := c.repos.Document.GetActive(ctx)
	if err != nil {
		return nil, storageErr("get active document", err)
	}
	if doc == nil {
		return nil, notFound("document", "")
	}
	return doc, nil
}
