package tokenfakerepo

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/token"
)

var _ token.RevocationStore = (*FakeRevocationStore)(nil)

type entry struct {
	value string
	exp   time.Time
}

// FakeRevocationStore is an in-memory RevocationStore that honours TTLs
// against an injectable clock.
type FakeRevocationStore struct {
	entries     map[string]entry
	nowFunc     func() time.Time
	unavailable bool
	lock        sync.RWMutex
}

func NewFakeRevocationStore(now func() time.Time) *FakeRevocationStore {
	if now == nil {
		now = time.Now
	}
	return &FakeRevocationStore{
		entries: make(map[string]entry),
		nowFunc: now,
	}
}

// SetUnavailable makes every call fail as if the backend were down.
func (s *FakeRevocationStore) SetUnavailable(down bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.unavailable = down
}

// Has reports whether key holds an unexpired value.
func (s *FakeRevocationStore) Has(key string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.get(key)
	return ok
}

func (s *FakeRevocationStore) BlacklistAccess(_ context.Context, rawToken string, ttl time.Duration) error {
	if ttl <= 0 {
		return s.check()
	}
	return s.set(token.BlacklistKey(rawToken), "1", ttl)
}

func (s *FakeRevocationStore) IsBlacklisted(_ context.Context, rawToken string) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.unavailable {
		return false, apperrors.ErrRevocationStoreUnavailable
	}
	_, ok := s.get(token.BlacklistKey(rawToken))
	return ok, nil
}

func (s *FakeRevocationStore) StoreRefresh(_ context.Context, userID int64, rawToken string, ttl time.Duration) error {
	return s.set(token.RefreshKey(userID), rawToken, ttl)
}

func (s *FakeRevocationStore) GetRefresh(_ context.Context, userID int64) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.unavailable {
		return "", false, apperrors.ErrRevocationStoreUnavailable
	}
	v, ok := s.get(token.RefreshKey(userID))
	return v, ok, nil
}

func (s *FakeRevocationStore) DeleteRefresh(_ context.Context, userID int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.unavailable {
		return apperrors.ErrRevocationStoreUnavailable
	}
	delete(s.entries, token.RefreshKey(userID))
	return nil
}

func (s *FakeRevocationStore) IsValidRefresh(ctx context.Context, userID int64, rawToken string) (bool, error) {
	stored, ok, err := s.GetRefresh(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return stored == rawToken, nil
}

func (s *FakeRevocationStore) check() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.unavailable {
		return apperrors.ErrRevocationStoreUnavailable
	}
	return nil
}

func (s *FakeRevocationStore) set(key, value string, ttl time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.unavailable {
		return apperrors.ErrRevocationStoreUnavailable
	}
	e := entry{value: value}
	if ttl > 0 {
		e.exp = s.nowFunc().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// get must be called with the lock held.
func (s *FakeRevocationStore) get(key string) (string, bool) {
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if !e.exp.IsZero() && !s.nowFunc().Before(e.exp) {
		return "", false
	}
	return e.value, true
}
