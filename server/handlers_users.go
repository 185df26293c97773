package server

import (
	"net/http"
	"strconv"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/users"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RegisterHandler creates a password account with the user role.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		user, err := s.users.Register(r.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusCreated, "Registration succeeded", user)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil {
			writeError(w, r, apperrors.ErrUnauthorized)
			return
		}
		writeSuccess(w, http.StatusOK, "User retrieved", user)
	}
}

// UpdateMeHandler changes the caller's name and/or password. Changing the
// password revokes the caller's refresh token.
func (s *Server) UpdateMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil {
			writeError(w, r, apperrors.ErrUnauthorized)
			return
		}

		var update users.ProfileUpdate
		if err := decodeJSON(w, r, &update); err != nil {
			writeError(w, r, err)
			return
		}

		updated, err := s.users.UpdateProfile(r.Context(), user, update)
		if err != nil {
			writeError(w, r, err)
			return
		}
		// A new password ends the refresh session issued under the old one.
		if update.NewPassword != nil {
			if err := s.sessions.RevokeRefresh(r.Context(), updated.ID); err != nil {
				writeError(w, r, err)
				return
			}
		}
		writeSuccess(w, http.StatusOK, "User updated", updated)
	}
}

// AdminUsersListHandler pages through every account, ordered by id.
func (s *Server) AdminUsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, size, err := pageParams(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		result, err := s.users.List(r.Context(), page, size)
		if err != nil {
			writeError(w, r, err)
			return
		}

		content := result.Users
		if content == nil {
			content = []*users.User{}
		}
		writeSuccess(w, http.StatusOK, "Users retrieved", PagedResponse[*users.User]{
			Content:       content,
			Page:          result.Page,
			Size:          result.Size,
			TotalElements: result.TotalElements,
			TotalPages:    result.TotalPages,
			Sort:          "id,asc",
		})
	}
}

// pageParams reads the optional 1-based page and size query parameters.
func pageParams(r *http.Request) (int, int, error) {
	fields := map[string]string{}
	parse := func(name string) int {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields[name] = "must be a positive integer"
			return 0
		}
		return n
	}

	page := parse("page")
	size := parse("size")
	if err := apperrors.NewValidationError(fields); err != nil {
		return 0, 0, err
	}
	return page, size, nil
}
