package pgstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/users"
	"github.com/jrsteele09/go-bookstore-server/users/pgstore"
	"github.com/stretchr/testify/require"
)

// Runs only when TEST_DATABASE_URL points at a disposable Postgres database.
func setupStore(t *testing.T) *pgstore.Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := pgstore.Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	email := uuid.NewString() + "@example.com"
	u := &users.User{Email: email, PasswordHash: "hash", Name: "Reader"}
	require.NoError(t, s.Create(ctx, u))
	require.NotZero(t, u.ID)
	require.False(t, u.CreatedAt.IsZero())

	require.ErrorIs(t, s.Create(ctx, &users.User{Email: email, PasswordHash: "x", Name: "Dup"}), apperrors.ErrDuplicateEmail)

	got, err := s.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, users.RoleUser, got.Role)

	got.Name = "Renamed"
	require.NoError(t, s.Update(ctx, got))

	byID, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", byID.Name)

	_, err = s.GetByID(ctx, -1)
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
