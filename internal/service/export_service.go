package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/law-comments-api/internal/apperr"
	"github.com/law-comments-api/internal/models"
	"github.com/rs/zerolog"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
	FormatCSV    = "csv"
)

// flushEvery is the record interval between flushes of a streamed export
const flushEvery = 100

var csvHeader = []string{
	"id", "document_id", "paragraph_id", "display_name", "content", "state",
	"submitted_at", "moderated_by", "moderated_at", "rejection_reason", "spam_score",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	*core
	log zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(c *core) *exportService {
	return &exportService{
		core: c,
		log:  c.log.With().Str("service", "export").Logger(),
	}
}

// StreamComments writes every comment matching filter in the given format.
// Authorization and validation errors are returned before anything is written.
func (s *exportService) StreamComments(ctx context.Context, w http.ResponseWriter, filter models.CommentFilter, format string) error {
	moderator, err := s.authorize(ctx)
	if err != nil {
		return err
	}
	if format == "" {
		format = FormatNDJSON
	}
	if format != FormatNDJSON && format != FormatJSON && format != FormatCSV {
		return apperr.NewValidationError("format", "format must be one of: ndjson, json, csv")
	}
	if err := s.validator.ValidateFilter(&filter); err != nil {
		return err
	}
	if err := s.scopeToActive(ctx, &filter); err != nil {
		return err
	}

	s.log.Info().Str("format", format).Str("moderator", moderator).Msg("Starting comments export")

	var count int
	switch format {
	case FormatJSON:
		count, err = s.streamJSON(ctx, w, filter)
	case FormatCSV:
		count, err = s.streamCSV(ctx, w, filter)
	default:
		count, err = s.streamNDJSON(ctx, w, filter)
	}

	s.log.Info().Int("count", count).Err(err).Msg("Comments export completed")
	if err != nil {
		return storageErr("export comments", err)
	}
	return nil
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter, filter models.CommentFilter) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Comment.StreamAll(ctx, filter, func(comment *models.Comment) error {
		data, err := json.Marshal(comment)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter, filter models.CommentFilter) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.json")

	w.Write([]byte("["))
	count := 0

	err := s.repos.Comment.StreamAll(ctx, filter, func(comment *models.Comment) error {
		if count > 0 {
			w.Write([]byte(","))
		}
		data, err := json.Marshal(comment)
		if err != nil {
			return err
		}
		w.Write(data)
		count++
		return nil
	})

	w.Write([]byte("]"))
	return count, err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter, filter models.CommentFilter) (int, error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.csv")

	// UTF-8 BOM so spreadsheet tools detect Hebrew text
	w.Write([]byte("\xEF\xBB\xBF"))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return 0, err
	}

	count := 0
	err := s.repos.Comment.StreamAll(ctx, filter, func(c *models.Comment) error {
		moderatedAt := ""
		if c.ModeratedAt != nil {
			moderatedAt = c.ModeratedAt.UTC().Format(time.RFC3339)
		}
		count++
		return writer.Write([]string{
			c.ID,
			c.DocumentID,
			strconv.Itoa(c.ParagraphID),
			csvText(c.DisplayName),
			csvText(c.Content),
			string(c.State),
			c.SubmittedAt.UTC().Format(time.RFC3339),
			csvText(c.ModeratedBy),
			moderatedAt,
			csvText(c.RejectionReason),
			strconv.FormatFloat(c.SpamScore, 'f', 2, 64),
		})
	})
	return count, err
}

// csvText prefixes free text that a spreadsheet would evaluate as a formula
func csvText(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// GetCount returns the number of comments an export of filter would contain
func (s *exportService) GetCount(ctx context.Context, filter models.CommentFilter) (int, error) {
	if _, err := s.authorize(ctx); err != nil {
		return 0, err
	}
	if err := s.validator.ValidateFilter(&filter); err != nil {
		return 0, err
	}
	if err := s.scopeToActive(ctx, &filter); err != nil {
		return 0, err
	}
	count, err := s.repos.Comment.Count(ctx, filter)
	if err != nil {
		return 0, storageErr("count comments", err)
	}
	return count, nil
}
