// Package redisstore keeps the token blacklist and refresh tokens in Redis.
package redisstore

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/token"
	"github.com/redis/go-redis/v9"
)

var _ token.RevocationStore = (*Store)(nil)

type Store struct {
	redis redis.Cmdable
}

func New(client redis.Cmdable) *Store {
	return &Store{redis: client}
}

// BlacklistAccess records token until ttl elapses. A non-positive ttl is a no-op.
func (s *Store) BlacklistAccess(ctx context.Context, rawToken string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, token.BlacklistKey(rawToken), "1", ttl).Err(); err != nil {
		return unavailable(err, "blacklist access token")
	}
	return nil
}

func (s *Store) IsBlacklisted(ctx context.Context, rawToken string) (bool, error) {
	n, err := s.redis.Exists(ctx, token.BlacklistKey(rawToken)).Result()
	if err != nil {
		return false, unavailable(err, "check blacklist")
	}
	return n > 0, nil
}

func (s *Store) StoreRefresh(ctx context.Context, userID int64, rawToken string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, token.RefreshKey(userID), rawToken, ttl).Err(); err != nil {
		return unavailable(err, "store refresh token")
	}
	return nil
}

func (s *Store) GetRefresh(ctx context.Context, userID int64) (string, bool, error) {
	value, err := s.redis.Get(ctx, token.RefreshKey(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable(err, "get refresh token")
	}
	return value, true, nil
}

func (s *Store) DeleteRefresh(ctx context.Context, userID int64) error {
	if err := s.redis.Del(ctx, token.RefreshKey(userID)).Err(); err != nil {
		return unavailable(err, "delete refresh token")
	}
	return nil
}

func (s *Store) IsValidRefresh(ctx context.Context, userID int64, rawToken string) (bool, error) {
	stored, ok, err := s.GetRefresh(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return stored == rawToken, nil
}

func unavailable(err error, op string) error {
	if errors.Is(err, apperrors.ErrRevocationStoreUnavailable) {
		return err
	}
	return apperrors.Mark(apperrors.ErrRevocationStoreUnavailable, apperrors.Wrapf(err, "redisstore %s", op))
}
