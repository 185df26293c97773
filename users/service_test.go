package users_test

import (
	"context"
	"fmt"
	"testing"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/internal/utils"
	"github.com/jrsteele09/go-bookstore-server/users"
	fakeuserrepo "github.com/jrsteele09/go-bookstore-server/users/repofake"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Password1"

type serviceFixture struct {
	repo    *fakeuserrepo.FakeUserRepo
	hasher  users.PasswordHasher
	service *users.Service
}

func setupServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	repo := fakeuserrepo.NewFakeUserRepo()
	hasher := users.NewPasswordHasher(bcrypt.MinCost)
	return &serviceFixture{
		repo:    repo,
		hasher:  hasher,
		service: users.NewService(repo, hasher),
	}
}

func TestService_Register(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()

	u, err := f.service.Register(ctx, "  New.Reader@Example.com ", testPassword, "New Reader")
	require.NoError(t, err)
	require.Equal(t, "new.reader@example.com", u.Email)
	require.Equal(t, users.RoleUser, u.Role)
	require.NotEqual(t, testPassword, u.PasswordHash)

	ok, err := f.hasher.Verify(testPassword, u.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.service.Register(ctx, "new.reader@example.com", testPassword, "Again")
	require.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestService_RegisterValidation(t *testing.T) {
	f := setupServiceFixture(t)

	_, err := f.service.Register(context.Background(), "not-an-email", "weak", "x")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "password")
	require.Contains(t, verr.Fields, "name")
}

func TestService_UpdateProfile(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()

	u, err := f.service.Register(ctx, "u1@example.com", testPassword, "Reader")
	require.NoError(t, err)

	t.Run("rename", func(t *testing.T) {
		updated, err := f.service.UpdateProfile(ctx, u, users.ProfileUpdate{Name: utils.Ptr("Bookworm")})
		require.NoError(t, err)
		require.Equal(t, "Bookworm", updated.Name)
		u = updated
	})

	t.Run("wrong current password", func(t *testing.T) {
		_, err := f.service.UpdateProfile(ctx, u, users.ProfileUpdate{
			CurrentPassword: utils.Ptr("Wrong1234"),
			NewPassword:     utils.Ptr("Changed123"),
		})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("missing current password", func(t *testing.T) {
		_, err := f.service.UpdateProfile(ctx, u, users.ProfileUpdate{NewPassword: utils.Ptr("Changed123")})
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("change password", func(t *testing.T) {
		updated, err := f.service.UpdateProfile(ctx, u, users.ProfileUpdate{
			CurrentPassword: utils.Ptr(testPassword),
			NewPassword:     utils.Ptr("Changed123"),
		})
		require.NoError(t, err)

		stored, err := f.repo.GetByID(ctx, updated.ID)
		require.NoError(t, err)
		ok, err := f.hasher.Verify("Changed123", stored.PasswordHash)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, users.RoleUser, stored.Role)
	})
}

func TestService_List(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := f.service.Register(ctx, fmt.Sprintf("u%02d@example.com", i), testPassword, "Reader")
		require.NoError(t, err)
	}

	page, err := f.service.List(ctx, 2, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.Page)
	require.Equal(t, 10, page.Size)
	require.Equal(t, 25, page.TotalElements)
	require.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Users, 10)
	require.Equal(t, int64(11), page.Users[0].ID)

	page, err = f.service.List(ctx, 0, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, users.MaxPageSize, page.Size)
	require.Len(t, page.Users, 25)
}

func TestService_EnsureAdmin(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()

	created, generated, err := f.service.EnsureAdmin(ctx, "Admin@Example.com", "", "")
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, users.ValidatePasswordStrength(generated))

	admin, err := f.repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.True(t, admin.IsAdmin())
	ok, err := f.hasher.Verify(generated, admin.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	created, _, err = f.service.EnsureAdmin(ctx, "admin@example.com", "Other1234", "Admin")
	require.NoError(t, err)
	require.False(t, created, "existing admin is left alone")
}
