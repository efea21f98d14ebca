package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/law-comments-api/internal/database"
	"github.com/law-comments-api/internal/models"
	"github.com/lib/pq"
)

const commentColumns = `id, document_id, paragraph_id, display_name, content, submitter_address, user_agent,
	submitted_at, state, moderated_by, moderated_at, rejection_reason, spam_score`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		c           models.Comment
		moderatedBy sql.NullString
		moderatedAt sql.NullTime
		reason      sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.DocumentID, &c.ParagraphID, &c.DisplayName, &c.Content, &c.SubmitterAddress, &c.UserAgent,
		&c.SubmittedAt, &c.State, &moderatedBy, &moderatedAt, &reason, &c.SpamScore,
	)
	if err != nil {
		return nil, err
	}
	c.ModeratedBy = moderatedBy.String
	c.RejectionReason = reason.String
	if moderatedAt.Valid {
		at := moderatedAt.Time
		c.ModeratedAt = &at
	}
	return &c, nil
}

// mapPQError translates constraint violations into repository sentinels
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrConflict
		case "23503": // foreign_key_violation
			return ErrNotFound
		}
	}
	return err
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.DocumentID, c.ParagraphID, c.DisplayName, c.Content, c.SubmitterAddress, c.UserAgent,
		c.SubmittedAt, c.State, nullString(c.ModeratedBy), c.ModeratedAt, nullString(c.RejectionReason), c.SpamScore,
	)
	return mapPQError(err)
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// whereBuilder accumulates AND clauses, numbering "?" placeholders as $n
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (w *whereBuilder) add(clause string, args ...interface{}) {
	var b strings.Builder
	next := 0
	for _, ch := range clause {
		if ch == '?' && next < len(args) {
			w.args = append(w.args, args[next])
			next++
			b.WriteString("$" + strconv.Itoa(len(w.args)))
			continue
		}
		b.WriteRune(ch)
	}
	w.clauses = append(w.clauses, b.String())
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func buildWhere(filter models.CommentFilter, snapshot *models.Cursor) *whereBuilder {
	w := &whereBuilder{}
	if filter.DocumentID != "" {
		w.add("document_id = ?", filter.DocumentID)
	}
	if filter.State != "" {
		w.add("state = ?", filter.State)
	}
	if filter.ParagraphID != nil {
		w.add("paragraph_id = ?", *filter.ParagraphID)
	}
	if filter.DateFrom != nil {
		w.add("submitted_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		w.add("submitted_at < ?", *filter.DateTo)
	}
	if snapshot != nil {
		w.add("(submitted_at, id) <= (?, ?)", snapshot.SubmittedAt, snapshot.ID)
	}
	return w
}

func orderBy(sort models.SortOrder) string {
	if sort == models.SortOldest {
		return " ORDER BY submitted_at ASC, id ASC"
	}
	return " ORDER BY submitted_at DESC, id DESC"
}

// newest returns the cursor of the newest row matching filter, or nil
func (r *commentRepo) newest(ctx context.Context, filter models.CommentFilter) (*models.Cursor, error) {
	w := buildWhere(filter, nil)
	query := `SELECT submitted_at, id FROM comments` + w.String() + ` ORDER BY submitted_at DESC, id DESC LIMIT 1`

	var cur models.Cursor
	err := r.db.QueryRowContext(ctx, query, w.args...).Scan(&cur.SubmittedAt, &cur.ID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cur, nil
}

// List returns one page of comments bounded by the snapshot cursor
func (r *commentRepo) List(ctx context.Context, filter models.CommentFilter, page models.PageRequest) (*models.CommentPage, error) {
	snapshot := page.Snapshot
	if snapshot == nil {
		cur, err := r.newest(ctx, filter)
		if err != nil {
			return nil, err
		}
		snapshot = cur
	}

	result := &models.CommentPage{
		Items:    []*models.Comment{},
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	if snapshot == nil {
		return result, nil
	}
	result.Snapshot = snapshot.Encode()

	w := buildWhere(filter, snapshot)
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`+w.String(), w.args...).Scan(&result.Total); err != nil {
		return nil, err
	}

	args := append(w.args, page.PageSize, page.Offset())
	n := len(w.args)
	query := `SELECT ` + commentColumns + ` FROM comments` + w.String() + orderBy(filter.Sort) +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, c)
	}
	return result, rows.Err()
}

// Moderate applies a decision to a single comment in one statement
func (r *commentRepo) Moderate(ctx context.Context, id string, decision models.Decision, moderator, reason string, at time.Time) (*models.Comment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var rejection sql.NullString
	if decision == models.DecisionReject {
		rejection = nullString(reason)
	}

	query := `
		UPDATE comments
		SET state = $1, moderated_by = $2, moderated_at = $3, rejection_reason = $4
		WHERE id = $5
		RETURNING ` + commentColumns

	c, err := scanComment(r.db.QueryRowContext(ctx, query, decision.State(), moderator, at, rejection, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// BulkModerate moderates each id with its own statement
func (r *commentRepo) BulkModerate(ctx context.Context, ids []string, decision models.Decision, moderator, reason string, at time.Time) (*models.BulkModerateResult, error) {
	return bulkModerate(ctx, ids, func(id string) error {
		_, err := r.Moderate(ctx, id, decision, moderator, reason, at)
		return err
	}), nil
}

// Stats aggregates comment counts by paragraph and state
func (r *commentRepo) Stats(ctx context.Context, documentID string) (*models.CommentStats, error) {
	query := `
		SELECT paragraph_id, state, COUNT(*)
		FROM comments
		WHERE document_id = $1
		GROUP BY paragraph_id, state
	`
	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &models.CommentStats{DocumentID: documentID, Paragraphs: []models.ParagraphStats{}}
	for rows.Next() {
		var (
			paragraphID int
			state       models.CommentState
			count       int
		)
		if err := rows.Scan(&paragraphID, &state, &count); err != nil {
			return nil, err
		}
		stats.Add(paragraphID, state, count)
	}
	return stats, rows.Err()
}

// RecentBySubmitter returns the duplicate detection history of a submitter
func (r *commentRepo) RecentBySubmitter(ctx context.Context, address, documentID string, paragraphID int, since time.Time) ([]*models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE submitter_address = $1 AND document_id = $2 AND paragraph_id = $3 AND submitted_at >= $4
		ORDER BY submitted_at DESC
		LIMIT $5
	`
	rows, err := r.db.QueryContext(ctx, query, address, documentID, paragraphID, since, HistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Count returns the number of comments matching filter
func (r *commentRepo) Count(ctx context.Context, filter models.CommentFilter) (int, error) {
	w := buildWhere(filter, nil)
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`+w.String(), w.args...).Scan(&count)
	return count, err
}

// StreamAll streams matching comments for export
func (r *commentRepo) StreamAll(ctx context.Context, filter models.CommentFilter, callback func(*models.Comment) error) error {
	w := buildWhere(filter, nil)
	rows, err := r.db.QueryContext(ctx, `SELECT `+commentColumns+` FROM comments`+w.String()+orderBy(filter.Sort), w.args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return err
		}
		if err := callback(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
