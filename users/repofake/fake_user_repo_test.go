package fakeuserrepo_test

import (
	"context"
	"testing"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/users"
	fakeuserrepo "github.com/jrsteele09/go-bookstore-server/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	first := &users.User{Email: "a@example.com", Name: "Alice"}
	second := &users.User{Email: "b@example.com", Name: "Bob", Role: users.RoleAdmin}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)
	require.Equal(t, users.RoleUser, first.Role)

	require.ErrorIs(t, repo.Create(ctx, &users.User{Email: "a@example.com"}), apperrors.ErrDuplicateEmail)

	got, err := repo.GetByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	require.True(t, got.IsAdmin())

	// Returned values are copies.
	got.Name = "Mutated"
	again, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, "Bob", again.Name)

	list, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	require.Equal(t, first.ID, list.Users[0].ID)

	repo.Delete(first.ID)
	_, err = repo.GetByID(ctx, first.ID)
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	require.ErrorIs(t, repo.Update(ctx, first), apperrors.ErrUserNotFound)
}
