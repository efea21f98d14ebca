// Package auth resolves the admin identity of a request from an HS256
// bearer token carried in the request context.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/law-comments-api/internal/apperr"
)

// AdminRole is the role claim required for moderation access
const AdminRole = "admin"

type contextKey struct{}

// WithToken returns a copy of ctx carrying the raw bearer token
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

// TokenFromContext returns the raw bearer token stored by WithToken
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(contextKey{}).(string)
	return token
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// JWTAuthorizer verifies admin tokens signed with a shared secret
type JWTAuthorizer struct {
	secret []byte
	now    func() time.Time
}

// NewJWTAuthorizer creates an authorizer for the given HS256 secret
func NewJWTAuthorizer(secret string) *JWTAuthorizer {
	return &JWTAuthorizer{secret: []byte(secret), now: time.Now}
}

// AdminIdentity returns the subject of the context's token when it is valid
// and carries the admin role. Every failure is an UnauthorizedError.
func (a *JWTAuthorizer) AdminIdentity(ctx context.Context) (string, error) {
	if len(a.secret) == 0 {
		return "", &apperr.UnauthorizedError{Reason: "admin authentication is not configured"}
	}

	raw := TokenFromContext(ctx)
	if raw == "" {
		return "", &apperr.UnauthorizedError{Reason: "missing bearer token"}
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return "", &apperr.UnauthorizedError{Reason: "invalid token"}
	}

	if !hasRole(claims["roles"], AdminRole) {
		return "", &apperr.UnauthorizedError{Reason: "admin role required"}
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", &apperr.UnauthorizedError{Reason: "token has no subject"}
	}
	return subject, nil
}

func hasRole(v interface{}, role string) bool {
	switch roles := v.(type) {
	case []interface{}:
		for _, r := range roles {
			if s, ok := r.(string); ok && s == role {
				return true
			}
		}
	case []string:
		for _, s := range roles {
			if s == role {
				return true
			}
		}
	case string:
		for _, s := range strings.Fields(roles) {
			if s == role {
				return true
			}
		}
	}
	return false
}

// SignToken issues an HS256 token for subject with the given roles
func SignToken(secret, subject string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
