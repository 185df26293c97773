package users

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with bcrypt. The salt is
// generated per call and the comparison is constant time.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher clamps cost into bcrypt's accepted range; 0 selects bcrypt.DefaultCost.
func NewPasswordHasher(cost int) PasswordHasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return PasswordHasher{cost: cost}
}

func (h PasswordHasher) Hash(plaintext string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("[PasswordHasher Hash] %w", err)
	}
	return string(bytes), nil
}

// Verify returns (false, nil) on a mismatch and ErrInvalidHashFormat when
// hash is not a bcrypt hash.
func (h PasswordHasher) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, apperrors.Mark(apperrors.ErrInvalidHashFormat, err)
	}
}

// UnusableHash hashes 32 random bytes that are immediately discarded, for
// accounts provisioned through a federated login.
func (h PasswordHasher) UnusableHash() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("[PasswordHasher UnusableHash] rand.Read: %w", err)
	}
	return h.Hash(hex.EncodeToString(secret))
}
