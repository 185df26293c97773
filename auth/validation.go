package auth

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
)

// Validator provides request-shape checks that run before the SessionService
// is called. Failures are ValidationErrors so the server can report them per field.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateUserCredentials validates login credentials
func (v *Validator) ValidateUserCredentials(email, password string) error {
	fields := map[string]string{}

	email = strings.TrimSpace(email)
	if email == "" {
		fields["email"] = "email is required"
	} else if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		fields["email"] = "invalid email format"
	}

	if password == "" {
		fields["password"] = "password is required"
	}

	return apperrors.NewValidationError(fields)
}

// ValidateRefreshToken checks that a refresh request carries a token at all.
func (v *Validator) ValidateRefreshToken(refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return apperrors.NewValidationError(map[string]string{"refresh_token": "refresh token is required"})
	}
	return nil
}

// ValidateIDToken checks that a federated login carries a provider token.
func (v *Validator) ValidateIDToken(idToken string) error {
	if strings.TrimSpace(idToken) == "" {
		return apperrors.NewValidationError(map[string]string{"id_token": "id token is required"})
	}
	return nil
}

// ValidateAccessToken validates access token format and presence
func (v *Validator) ValidateAccessToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("access token is required: %w", apperrors.ErrUnauthorized)
	}

	// Basic format check - should be a JWT (3 parts separated by dots)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("invalid token format: %w", apperrors.ErrTokenInvalid)
	}

	// Each part should have content
	for i, part := range parts {
		if len(part) == 0 {
			return fmt.Errorf("invalid token format: part %d is empty: %w", i+1, apperrors.ErrTokenInvalid)
		}
	}

	return nil
}

// ValidateState validates an OAuth state parameter returned to the callback
func ValidateState(state string) error {
	if state == "" {
		return fmt.Errorf("state parameter is required")
	}

	// Should be reasonably long for CSRF protection
	if len(state) < 8 {
		return fmt.Errorf("state parameter should be at least 8 characters for security")
	}

	// Should not contain whitespace
	if strings.TrimSpace(state) != state {
		return fmt.Errorf("state parameter must not contain leading/trailing whitespace")
	}

	return nil
}
