package server

import (
	"net/http"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginHandler exchanges email and password for an access and refresh token.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.validator.ValidateUserCredentials(req.Email, req.Password); err != nil {
			writeError(w, r, err)
			return
		}

		pair, err := s.sessions.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Login succeeded", pair)
	}
}

// RefreshHandler issues a new access token for the caller's live refresh token.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.validator.ValidateRefreshToken(req.RefreshToken); err != nil {
			writeError(w, r, err)
			return
		}

		pair, err := s.sessions.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Token refreshed", pair)
	}
}

// LogoutHandler revokes the presented access token and the user's refresh token.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil {
			writeError(w, r, apperrors.ErrUnauthorized)
			return
		}

		if err := s.sessions.Logout(r.Context(), currentAccessToken(r), user.ID); err != nil {
			writeError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Logout succeeded", nil)
	}
}
