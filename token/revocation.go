package token

import (
	"context"
	"strconv"
	"time"
)

// RevocationStore keeps the access token blacklist and the single live
// refresh token per user. Backend failures are reported wrapped in
// errors.ErrRevocationStoreUnavailable.
type RevocationStore interface {
	BlacklistAccess(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	// StoreRefresh overwrites any refresh token already held for userID.
	StoreRefresh(ctx context.Context, userID int64, token string, ttl time.Duration) error
	GetRefresh(ctx context.Context, userID int64) (string, bool, error)
	DeleteRefresh(ctx context.Context, userID int64) error
	IsValidRefresh(ctx context.Context, userID int64, token string) (bool, error)
}

const (
	blacklistPrefix = "blacklist:"
	refreshPrefix   = "refresh:"
)

func BlacklistKey(token string) string {
	return blacklistPrefix + token
}

func RefreshKey(userID int64) string {
	return refreshPrefix + strconv.FormatInt(userID, 10)
}
