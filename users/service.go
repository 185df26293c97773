package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/internal/utils"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service holds the account operations that sit beside the token lifecycle:
// registration, profile changes, paging and the bootstrap administrator.
type Service struct {
	repo   Repo
	hasher PasswordHasher
}

func NewService(repo Repo, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// ProfileUpdate carries the optional fields of a profile change. A password
// change needs both CurrentPassword and NewPassword.
type ProfileUpdate struct {
	Name            *string `json:"name,omitempty"`
	CurrentPassword *string `json:"current_password,omitempty"`
	NewPassword     *string `json:"new_password,omitempty"`
}

// Page is a 1-based slice of the user list.
type Page struct {
	Users         []*User
	Page          int
	Size          int
	TotalElements int
	TotalPages    int
}

func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := ValidateRegistration(email, password, name); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[users.Service Register] Hash")
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies update to user and persists it. Role is never changed.
func (s *Service) UpdateProfile(ctx context.Context, user *User, update ProfileUpdate) (*User, error) {
	fields := map[string]string{}
	if update.Name != nil {
		if err := ValidateName(*update.Name); err != nil {
			fields["name"] = err.Error()
		}
	}
	if update.NewPassword != nil {
		if utils.Value(update.CurrentPassword) == "" {
			fields["current_password"] = "required to change the password"
		}
		if err := ValidatePasswordStrength(*update.NewPassword); err != nil {
			fields["new_password"] = err.Error()
		}
	}
	if err := apperrors.NewValidationError(fields); err != nil {
		return nil, err
	}

	updated := *user
	if update.Name != nil {
		updated.Name = strings.TrimSpace(*update.Name)
	}
	if update.NewPassword != nil {
		ok, err := s.hasher.Verify(utils.Value(update.CurrentPassword), user.PasswordHash)
		if err != nil && !apperrors.Is(err, apperrors.ErrInvalidHashFormat) {
			return nil, err
		}
		if !ok {
			return nil, apperrors.ErrInvalidCredentials
		}
		hash, err := s.hasher.Hash(*update.NewPassword)
		if err != nil {
			return nil, apperrors.Wrapf(err, "[users.Service UpdateProfile] Hash")
		}
		updated.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// List returns page (1-based) of size users ordered by ID.
func (s *Service) List(ctx context.Context, page, size int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	resp, err := s.repo.List(ctx, (page-1)*size, size)
	if err != nil {
		return nil, err
	}

	return &Page{
		Users:         resp.Users,
		Page:          page,
		Size:          size,
		TotalElements: resp.Total,
		TotalPages:    (resp.Total + size - 1) / size,
	}, nil
}

// EnsureAdmin creates an administrator account for email unless one exists.
// When password is empty a random one is generated and returned.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (created bool, generated string, err error) {
	email = NormalizeEmail(email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return false, "", nil
	} else if !apperrors.Is(err, apperrors.ErrUserNotFound) {
		return false, "", err
	}

	if password == "" {
		password, err = randomPassword()
		if err != nil {
			return false, "", err
		}
		generated = password
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName(email)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, "", apperrors.Wrapf(err, "[users.Service EnsureAdmin] Hash")
	}

	admin := &User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         RoleAdmin,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if apperrors.Is(err, apperrors.ErrDuplicateEmail) {
			return false, "", nil
		}
		return false, "", err
	}
	return true, generated, nil
}

// randomPassword satisfies ValidatePasswordStrength: random base plus a
// fixed upper, lower and digit suffix.
func randomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[users randomPassword] rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b) + "Aa1", nil
}
