package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/law-comments-api/internal/apperr"
	"github.com/law-comments-api/internal/models"
)

const (
	// MaxReasonLength bounds a moderator's rejection reason
	MaxReasonLength = 500

	// MaxBulkIDs bounds a single bulk moderation request
	MaxBulkIDs = 500
)

// Limits holds the configurable content bounds
type Limits struct {
	MinContentLength int
	MaxContentLength int
	MaxDisplayName   int
}

// Validator provides validation methods
type Validator struct {
	limits Limits
}

// NewValidator creates a new validator instance
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Limits returns the bounds the validator enforces
func (v *Validator) Limits() Limits {
	return v.limits
}

// ValidateSubmission validates a raw submission against the active document.
// All field violations are reported together; nothing is mutated.
func (v *Validator) ValidateSubmission(req *models.SubmitRequest, doc *models.LawDocument) error {
	var errors []apperr.FieldError

	// Validate document reference
	if req.DocumentID != "" && doc != nil && req.DocumentID != doc.ID {
		errors = append(errors, apperr.FieldError{Field: "document_id", Message: "document is not open for comments", Value: req.DocumentID})
	}

	// Validate paragraph reference
	if req.ParagraphID <= 0 {
		errors = append(errors, apperr.FieldError{Field: "paragraph_id", Message: "paragraph_id is required"})
	} else if doc != nil && !doc.HasParagraph(req.ParagraphID) {
		errors = append(errors, apperr.FieldError{Field: "paragraph_id", Message: "paragraph does not exist in the document", Value: req.ParagraphID})
	}

	// Validate display name
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		errors = append(errors, apperr.FieldError{Field: "display_name", Message: "display_name is required"})
	} else if n := utf8.RuneCountInString(name); n > v.limits.MaxDisplayName {
		errors = append(errors, apperr.FieldError{
			Field:   "display_name",
			Message: fmt.Sprintf("display_name exceeds maximum of %d characters (has %d)", v.limits.MaxDisplayName, n),
		})
	}

	// Validate content
	if fe := v.contentError(req.Content); fe != nil {
		errors = append(errors, *fe)
	}

	if len(errors) > 0 {
		return &apperr.ValidationError{Fields: errors}
	}
	return nil
}

// ValidateSanitized re-checks bounds after sanitization removed markup
func (v *Validator) ValidateSanitized(displayName, content string) error {
	var errors []apperr.FieldError
	if strings.TrimSpace(displayName) == "" {
		errors = append(errors, apperr.FieldError{Field: "display_name", Message: "display_name contains no displayable text"})
	}
	if strings.TrimSpace(content) == "" {
		errors = append(errors, apperr.FieldError{Field: "content", Message: "content contains no displayable text"})
	} else if fe := v.contentError(content); fe != nil {
		errors = append(errors, *fe)
	}
	if len(errors) > 0 {
		return &apperr.ValidationError{Fields: errors}
	}
	return nil
}

func (v *Validator) contentError(content string) *apperr.FieldError {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return &apperr.FieldError{Field: "content", Message: "content is required"}
	}
	n := utf8.RuneCountInString(trimmed)
	if n < v.limits.MinContentLength {
		return &apperr.FieldError{
			Field:   "content",
			Message: fmt.Sprintf("content must be at least %d characters (has %d)", v.limits.MinContentLength, n),
		}
	}
	if n > v.limits.MaxContentLength {
		return &apperr.FieldError{
			Field:   "content",
			Message: fmt.Sprintf("content exceeds maximum of %d characters (has %d)", v.limits.MaxContentLength, n),
		}
	}
	return nil
}

// ValidateModeration validates a moderation decision and reason
func (v *Validator) ValidateModeration(decision models.Decision, reason string) error {
	var errors []apperr.FieldError

	if decision == "" {
		errors = append(errors, apperr.FieldError{Field: "decision", Message: "decision is required"})
	} else if !decision.Valid() {
		errors = append(errors, apperr.FieldError{
			Field:   "decision",
			Message: "invalid decision, must be one of: approved, rejected",
			Value:   string(decision),
		})
	}

	if n := utf8.RuneCountInString(reason); n > MaxReasonLength {
		errors = append(errors, apperr.FieldError{
			Field:   "reason",
			Message: fmt.Sprintf("reason exceeds maximum of %d characters (has %d)", MaxReasonLength, n),
		})
	}

	if len(errors) > 0 {
		return &apperr.ValidationError{Fields: errors}
	}
	return nil
}

// ValidateBulk validates a bulk moderation request. Unknown ids are not a
// validation failure; they are reported per id by the store.
func (v *Validator) ValidateBulk(req *models.BulkModerateRequest) error {
	if err := v.ValidateModeration(req.Decision, req.Reason); err != nil {
		return err
	}
	if len(req.CommentIDs) == 0 {
		return apperr.NewValidationError("comment_ids", "comment_ids must not be empty")
	}
	if len(req.CommentIDs) > MaxBulkIDs {
		return apperr.NewValidationError("comment_ids", fmt.Sprintf("at most %d comment_ids per request", MaxBulkIDs))
	}
	return nil
}

// ValidateFilter validates admin listing filters
func (v *Validator) ValidateFilter(filter *models.CommentFilter) error {
	var errors []apperr.FieldError

	if filter.State != "" && !models.ValidStates[filter.State] {
		errors = append(errors, apperr.FieldError{
			Field:   "state",
			Message: "invalid state, must be one of: pending, approved, rejected",
			Value:   string(filter.State),
		})
	}
	if filter.Sort != "" && filter.Sort != models.SortNewest && filter.Sort != models.SortOldest {
		errors = append(errors, apperr.FieldError{Field: "sort", Message: "sort must be one of: asc, desc", Value: string(filter.Sort)})
	}
	if filter.DateFrom != nil && filter.DateTo != nil && !filter.DateFrom.Before(*filter.DateTo) {
		errors = append(errors, apperr.FieldError{Field: "date_to", Message: "date_to must be after date_from"})
	}

	if len(errors) > 0 {
		return &apperr.ValidationError{Fields: errors}
	}
	return nil
}
