package server

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/rs/zerolog/log"
)

// Error codes returned in the failure envelope. Clients branch on these.
const (
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeTokenBlacklisted       = "TOKEN_BLACKLISTED"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeInvalidRefreshToken    = "INVALID_REFRESH_TOKEN"
	CodeForbidden              = "FORBIDDEN"
	CodeIdentityFailed         = "IDENTITY_VERIFICATION_FAILED"
	CodeIdentityProviderError  = "IDENTITY_PROVIDER_ERROR"
	CodeProviderNotFound       = "PROVIDER_NOT_FOUND"
	CodeRevocationUnavailable  = "REVOCATION_STORE_UNAVAILABLE"
	CodeDuplicateEmail         = "DUPLICATE_EMAIL"
	CodeInvalidCurrentPassword = "INVALID_CURRENT_PASSWORD"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeNotFound               = "NOT_FOUND"
	CodeMethodNotAllowed       = "METHOD_NOT_ALLOWED"
	CodeTooManyRequests        = "TOO_MANY_REQUESTS"
	CodeInternal               = "INTERNAL_SERVER_ERROR"
)

const maxBodyBytes = 1 << 20

// APIResponse is the success envelope.
type APIResponse struct {
	IsSuccess bool   `json:"is_success"`
	Message   string `json:"message"`
	Payload   any    `json:"payload"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Timestamp time.Time      `json:"timestamp"`
	Path      string         `json:"path"`
	Status    int            `json:"status"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// PagedResponse is the payload of list endpoints.
type PagedResponse[T any] struct {
	Content       []T    `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalElements int    `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Sort          string `json:"sort,omitempty"`
}

type errorMapping struct {
	sentinel error
	status   int
	code     string
	message  string
}

// errorMappings is checked in order, so more specific sentinels come before
// the ones they wrap.
var errorMappings = []errorMapping{
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, CodeTokenExpired, "Token has expired"},
	{apperrors.ErrTokenBlacklisted, http.StatusUnauthorized, CodeTokenBlacklisted, "Token has been revoked"},
	{apperrors.ErrInvalidRefreshToken, http.StatusUnauthorized, CodeInvalidRefreshToken, "Refresh token is invalid or expired"},
	{apperrors.ErrUserNotFound, http.StatusUnauthorized, CodeUserNotFound, "User not found"},
	{apperrors.ErrBadCredentials, http.StatusUnauthorized, CodeUnauthorized, "Invalid email or password"},
	{apperrors.ErrInvalidTokenPayload, http.StatusUnauthorized, CodeUnauthorized, "Invalid token payload"},
	{apperrors.ErrTokenTypeMismatch, http.StatusUnauthorized, CodeUnauthorized, "Invalid token type"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, CodeUnauthorized, "Invalid token"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "Authentication required"},
	{apperrors.ErrForbidden, http.StatusForbidden, CodeForbidden, "Admin access required"},
	{apperrors.ErrIdentityProviderUnavailable, http.StatusInternalServerError, CodeIdentityProviderError, "Identity provider is unavailable"},
	{apperrors.ErrIdentityVerificationFailed, http.StatusUnauthorized, CodeIdentityFailed, "Identity verification failed"},
	{apperrors.ErrUnsupportedProvider, http.StatusNotFound, CodeProviderNotFound, "Unsupported identity provider"},
	{apperrors.ErrRevocationStoreUnavailable, http.StatusInternalServerError, CodeRevocationUnavailable, "Token store is unavailable"},
	{apperrors.ErrDuplicateEmail, http.StatusConflict, CodeDuplicateEmail, "Email is already registered"},
	{apperrors.ErrInvalidCredentials, http.StatusBadRequest, CodeInvalidCurrentPassword, "Current password is incorrect"},
	{apperrors.ErrValidation, http.StatusUnprocessableEntity, CodeValidationFailed, "Request validation failed"},
	{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, CodeTooManyRequests, "Too many requests"},
	{apperrors.ErrNotFound, http.StatusNotFound, CodeNotFound, "Resource not found"},
	{apperrors.ErrInternal, http.StatusInternalServerError, CodeInternal, "Internal server error"},
}

// classifyError maps err onto its status, code and client-facing message.
func classifyError(err error) (int, string, string) {
	for _, m := range errorMappings {
		if apperrors.Is(err, m.sentinel) {
			return m.status, m.code, m.message
		}
	}
	return http.StatusInternalServerError, CodeInternal, "Internal server error"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, payload any) {
	writeJSON(w, status, APIResponse{IsSuccess: true, Message: message, Payload: payload})
}

// writeError renders err as the failure envelope. Unmapped errors are logged
// and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)

	resp := ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
		Status:    status,
		Code:      code,
		Message:   message,
	}

	var verr *apperrors.ValidationError
	if apperrors.As(err, &verr) {
		resp.Details = make(map[string]any, len(verr.Fields))
		for field, reason := range verr.Fields {
			resp.Details[field] = reason
		}
	}

	if status >= http.StatusInternalServerError {
		log.Err(err).Str("path", r.URL.Path).Str("code", code).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Str("code", code).Msg("request rejected")
	}

	writeJSON(w, status, resp)
}

// writeErrorCode reports a failure that has no sentinel behind it, such as an
// unreadable body.
func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
		Status:    status,
		Code:      code,
		Message:   message,
	})
}

// decodeJSON reads a JSON request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError(map[string]string{"body": "request body must be valid JSON: " + err.Error()})
	}
	return nil
}
