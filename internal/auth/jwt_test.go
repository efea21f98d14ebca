package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/law-comments-api/internal/apperr"
)

const testSecret = "test-secret"

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer   abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestJWTAuthorizer_AdminIdentity(t *testing.T) {
	authorizer := NewJWTAuthorizer(testSecret)

	admin, err := SignToken(testSecret, "moderator-1", []string{"editor", AdminRole}, time.Hour)
	if err != nil {
		t.Fatalf("SignToken failed: %v", err)
	}
	editor, _ := SignToken(testSecret, "editor-1", []string{"editor"}, time.Hour)
	expired, _ := SignToken(testSecret, "moderator-1", []string{AdminRole}, -time.Hour)
	foreign, _ := SignToken("other-secret", "moderator-1", []string{AdminRole}, time.Hour)
	noSubject, _ := SignToken(testSecret, "", []string{AdminRole}, time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x", "roles": []string{AdminRole}})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{"admin token", admin, "moderator-1", false},
		{"missing token", "", "", true},
		{"no admin role", editor, "", true},
		{"expired", expired, "", true},
		{"wrong secret", foreign, "", true},
		{"no subject", noSubject, "", true},
		{"alg none", unsigned, "", true},
		{"garbage", "not-a-jwt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authorizer.AdminIdentity(WithToken(context.Background(), tt.token))
			if (err != nil) != tt.wantErr {
				t.Fatalf("AdminIdentity() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperr.IsUnauthorized(err) {
				t.Errorf("Expected UnauthorizedError, got %T", err)
			}
			if got != tt.want {
				t.Errorf("AdminIdentity() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJWTAuthorizer_NoSecretFailsClosed(t *testing.T) {
	token, _ := SignToken("", "moderator-1", []string{AdminRole}, time.Hour)
	_, err := NewJWTAuthorizer("").AdminIdentity(WithToken(context.Background(), token))
	if !apperr.IsUnauthorized(err) {
		t.Errorf("Expected UnauthorizedError without a secret, got %v", err)
	}
}

func TestHasRole(t *testing.T) {
	if !hasRole("editor admin", AdminRole) {
		t.Error("Space separated roles should match")
	}
	if hasRole([]interface{}{"administrator"}, AdminRole) {
		t.Error("Role match must be exact")
	}
	if hasRole(nil, AdminRole) {
		t.Error("Missing roles claim should not match")
	}
}
