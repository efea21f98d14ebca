package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/law-comments-api/internal/apperr"
	"github.com/rs/zerolog"
)

// statusForCode maps a public error code to an HTTP status
func statusForCode(code string) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeDuplicate:
		return http.StatusConflict
	case apperr.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes an admin error response. Storage and unknown errors
// are logged and reported generically.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	code := apperr.Code(err)
	body := gin.H{"error": err.Error(), "error_code": code}

	var (
		validationErr *apperr.ValidationError
		limited       *apperr.RateLimitedError
	)
	switch {
	case errors.As(err, &validationErr):
		body["fields"] = validationErr.Fields
	case errors.As(err, &limited):
		c.Header("Retry-After", strconv.Itoa(int(limited.RetryAfter(time.Now()).Seconds())))
	case code == apperr.CodeInternal:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		body["error"] = "internal error"
	}

	c.JSON(statusForCode(code), body)
}

// badRequest writes a validation failure for a malformed request
func badRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      message,
		"error_code": apperr.CodeValidation,
		"fields":     []apperr.FieldError{{Field: field, Message: message}},
	})
}
