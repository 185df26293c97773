package errors

import (
	"errors"
	"fmt"
)

// Common error types for the bookstore server
var (
	// Authentication errors
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUserNotFound        = errors.New("user not found")
	ErrForbidden           = errors.New("admin access required")
	ErrInvalidHashFormat   = errors.New("invalid password hash format")
	ErrDuplicateEmail      = errors.New("email is already registered")
	ErrInvalidCredentials  = errors.New("current password is incorrect")
	ErrUnsupportedProvider = errors.New("unsupported identity provider")

	// All of these surface as ErrUnauthorized.
	ErrBadCredentials      = fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	ErrInvalidTokenPayload = fmt.Errorf("invalid token payload: %w", ErrUnauthorized)
	ErrUnresolvedIdentity  = fmt.Errorf("no email resolved from identity provider: %w", ErrUnauthorized)

	// Token errors
	ErrTokenInvalid        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token has expired")
	ErrTokenTypeMismatch   = errors.New("invalid token type")
	ErrTokenBlacklisted    = errors.New("token has been revoked")
	ErrInvalidRefreshToken = errors.New("refresh token is invalid or expired")

	// External identity errors. ErrIdentityProviderUnavailable wraps
	// ErrIdentityVerificationFailed so callers can match either.
	ErrIdentityVerificationFailed  = errors.New("identity verification failed")
	ErrIdentityProviderUnavailable = fmt.Errorf("identity provider unavailable: %w", ErrIdentityVerificationFailed)

	// Infrastructure errors
	ErrRevocationStoreUnavailable = errors.New("revocation store unavailable")

	// Request errors
	ErrValidation      = errors.New("validation failed")
	ErrTooManyRequests = errors.New("too many requests")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// ValidationError carries per-field reasons for a rejected request body.
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(v.Fields))
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError returns nil when fields is empty so callers can return it directly.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Mark attaches a sentinel to err so errors.Is matches both.
func Mark(sentinel, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
