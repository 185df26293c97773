package sqlstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/users"
	"github.com/jrsteele09/go-bookstore-server/users/sqlstore"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	s, err := sqlstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(email string) *users.User {
	return &users.User{
		Email:        email,
		PasswordHash: "$2a$04$notarealhashbutlongenoughforthecolumn",
		Name:         "Reader",
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	u := newUser("u1@example.com")
	require.NoError(t, s.Create(ctx, u))
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, users.RoleUser, u.Role)
	require.False(t, u.CreatedAt.IsZero())

	byEmail, err := s.GetByEmail(ctx, "u1@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, u.PasswordHash, byEmail.PasswordHash)
	require.Equal(t, users.RoleUser, byEmail.Role)

	byID, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "u1@example.com", byID.Email)
	require.WithinDuration(t, u.CreatedAt, byID.CreatedAt, time.Second)
}

func TestStore_DuplicateEmail(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newUser("dup@example.com")))
	err := s.Create(ctx, newUser("dup@example.com"))
	require.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestStore_NotFound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.GetByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = s.GetByID(ctx, 42)
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)

	err = s.Update(ctx, &users.User{ID: 42, Name: "Nobody"})
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestStore_UpdateKeepsRole(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	u := newUser("u1@example.com")
	require.NoError(t, s.Create(ctx, u))

	u.Name = "Renamed"
	u.PasswordHash = "$2a$04$anotherhashvalue"
	u.Role = users.RoleAdmin
	require.NoError(t, s.Update(ctx, u))

	got, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
	require.Equal(t, "$2a$04$anotherhashvalue", got.PasswordHash)
	require.Equal(t, users.RoleUser, got.Role, "Update must not change the role")
}

func TestStore_List(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Create(ctx, newUser(fmt.Sprintf("u%d@example.com", i))))
	}

	page, err := s.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
	require.Len(t, page.Users, 2)
	require.Equal(t, int64(3), page.Users[0].ID)
	require.Equal(t, int64(4), page.Users[1].ID)

	empty, err := s.List(ctx, 10, 2)
	require.NoError(t, err)
	require.Equal(t, 5, empty.Total)
	require.Empty(t, empty.Users)
}
