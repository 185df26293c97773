package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated *users.User
	ContextKeyUser ContextKey = "user"
	// ContextKeyAccessToken stores the raw bearer token the user presented
	ContextKeyAccessToken ContextKey = "access_token"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.Wrapf(apperrors.ErrUnauthorized, "missing Authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", apperrors.Wrapf(apperrors.ErrUnauthorized, "invalid Authorization header format")
	}
	return strings.TrimSpace(token), nil
}

// RequireAuth is middleware that validates a Bearer access token and loads
// the account behind it. Revoked, expired and malformed tokens are rejected.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if err := s.validator.ValidateAccessToken(token); err != nil {
				writeError(w, r, err)
				return
			}

			user, err := s.sessions.ResolveCurrentUser(r.Context(), token)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyAccessToken, token)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAdmin is middleware that validates the admin role.
// Should be chained after RequireAuth to ensure the user is present
func (s *Server) RequireAdmin() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if _, err := s.sessions.RequireAdmin(currentUser(r)); err != nil {
				writeError(w, r, err)
				return
			}
			next(w, r)
		}
	}
}

// currentUser returns the user RequireAuth stored, or nil.
func currentUser(r *http.Request) *users.User {
	user, _ := r.Context().Value(ContextKeyUser).(*users.User)
	return user
}

func currentAccessToken(r *http.Request) string {
	token, _ := r.Context().Value(ContextKeyAccessToken).(string)
	return token
}
