package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/law-comments-api/internal/models"
)

const dateOnly = "2006-01-02"

// parseTime accepts RFC 3339 timestamps and plain dates. A plain date as
// an upper bound covers the whole day.
func parseTime(raw string, upper bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, false
	}
	if upper {
		t = t.Add(24 * time.Hour)
	}
	return t, true
}

// parseFilter reads the admin listing filters. It writes the 400 response
// itself and returns false on malformed input.
func parseFilter(c *gin.Context) (models.CommentFilter, bool) {
	filter := models.CommentFilter{
		State: models.CommentState(c.Query("state")),
		Sort:  models.SortOrder(c.Query("sort")),
	}

	if raw := c.Query("paragraph_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "paragraph_id", "paragraph_id must be an integer")
			return filter, false
		}
		filter.ParagraphID = &id
	}
	if raw := c.Query("date_from"); raw != "" {
		t, ok := parseTime(raw, false)
		if !ok {
			badRequest(c, "date_from", "date_from must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			return filter, false
		}
		filter.DateFrom = &t
	}
	if raw := c.Query("date_to"); raw != "" {
		t, ok := parseTime(raw, true)
		if !ok {
			badRequest(c, "date_to", "date_to must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			return filter, false
		}
		filter.DateTo = &t
	}
	return filter, true
}

// parsePage reads page, page_size and snapshot. Bounds are clamped by the
// services; only malformed values are refused here.
func parsePage(c *gin.Context) (models.PageRequest, bool) {
	var page models.PageRequest

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "page", "page must be an integer")
			return page, false
		}
		page.Page = n
	}
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "page_size", "page_size must be an integer")
			return page, false
		}
		page.PageSize = n
	}
	if raw := c.Query("snapshot"); raw != "" {
		cursor, err := models.DecodeCursor(raw)
		if err != nil {
			badRequest(c, "snapshot", "snapshot is not a valid listing token")
			return page, false
		}
		page.Snapshot = cursor
	}
	return page, true
}
