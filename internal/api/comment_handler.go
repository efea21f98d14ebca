package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/law-comments-api/internal/apperr"
	"github.com/law-comments-api/internal/models"
	"github.com/law-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// CommentHandler handles the public comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// Submit handles POST /v1/comments
func (h *CommentHandler) Submit(c *gin.Context) {
	var req models.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.SubmitResponse{
			Success:   false,
			Error:     "invalid request body",
			ErrorCode: apperr.CodeValidation,
		})
		return
	}

	origin := models.RequestOrigin{
		Address:   c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	resp := h.services.Comment.SubmitComment(c.Request.Context(), &req, origin)

	if resp.Success {
		c.JSON(http.StatusCreated, resp)
		return
	}
	if resp.RetryAfterSeconds > 0 {
		c.Header("Retry-After", strconv.Itoa(resp.RetryAfterSeconds))
	}
	c.JSON(statusForCode(resp.ErrorCode), resp)
}

// ListApproved handles GET /v1/comments?paragraph_id=&page=&page_size=
func (h *CommentHandler) ListApproved(c *gin.Context) {
	var paragraphID *int
	if raw := c.Query("paragraph_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "paragraph_id", "paragraph_id must be an integer")
			return
		}
		paragraphID = &id
	}

	page, ok := parsePage(c)
	if !ok {
		return
	}

	result, err := h.services.Comment.ListApproved(c.Request.Context(), paragraphID, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
