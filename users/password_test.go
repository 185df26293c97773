package users_test

import (
	"strings"
	"testing"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := users.NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("P@ssw0rd!")
	require.NoError(t, err)
	require.NotEqual(t, "P@ssw0rd!", hash)

	t.Run("matching password", func(t *testing.T) {
		ok, err := h.Verify("P@ssw0rd!", hash)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("wrong password", func(t *testing.T) {
		ok, err := h.Verify("WrongPassword!", hash)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("salted per call", func(t *testing.T) {
		other, err := h.Hash("P@ssw0rd!")
		require.NoError(t, err)
		require.NotEqual(t, hash, other)
	})

	t.Run("malformed hash", func(t *testing.T) {
		ok, err := h.Verify("P@ssw0rd!", "not-a-bcrypt-hash")
		require.ErrorIs(t, err, apperrors.ErrInvalidHashFormat)
		require.False(t, ok)
	})

	t.Run("empty hash", func(t *testing.T) {
		_, err := h.Verify("P@ssw0rd!", "")
		require.ErrorIs(t, err, apperrors.ErrInvalidHashFormat)
	})
}

func TestPasswordHasher_UnusableHash(t *testing.T) {
	h := users.NewPasswordHasher(bcrypt.MinCost)

	first, err := h.UnusableHash()
	require.NoError(t, err)
	second, err := h.UnusableHash()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	for _, guess := range []string{"", "password", "P@ssw0rd!"} {
		ok, err := h.Verify(guess, first)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	hash, err := users.NewPasswordHasher(1).Hash("P@ssw0rd!")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, bcrypt.MinCost, cost)
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "P@ssw0rd!", ""},
		{"too short", "Ab1", "at least 8"},
		{"too long", "Aa1" + strings.Repeat("x", 70), "at most 72"},
		{"no upper", "p@ssw0rd!", "uppercase"},
		{"no lower", "P@SSW0RD!", "lowercase"},
		{"no digit", "P@ssword!", "number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
