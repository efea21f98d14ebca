package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/law-comments-api/internal/models"
	"github.com/law-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// AdminHandler handles the moderation endpoints
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// ListComments handles GET /v1/admin/comments
func (h *AdminHandler) ListComments(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}

	result, err := h.services.Moderation.ListComments(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Moderate handles POST /v1/admin/comments/:id/moderate
func (h *AdminHandler) Moderate(c *gin.Context) {
	var req models.ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "invalid request body")
		return
	}

	comment, err := h.services.Moderation.Moderate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// BulkModerate handles POST /v1/admin/comments/bulk-moderate
func (h *AdminHandler) BulkModerate(c *gin.Context) {
	var req models.BulkModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "invalid request body")
		return
	}

	result, err := h.services.Moderation.BulkModerate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Stats handles GET /v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.services.Moderation.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
