package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/law-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /v1/admin/comments/export?format=...&state=...
// Streams the export directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	format := c.Query("format")

	err := h.services.Export.StreamComments(c.Request.Context(), c.Writer, filter, format)
	if err == nil {
		return
	}
	if !c.Writer.Written() {
		respondError(c, h.log, err)
		return
	}
	// Can't return error JSON after streaming has started
	h.log.Error().Err(err).Str("format", format).Msg("Export failed mid-stream")
}

// CountExport handles GET /v1/admin/comments/export/count
func (h *ExportHandler) CountExport(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	count, err := h.services.Export.GetCount(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
