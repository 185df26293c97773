package authflowrepo

import (
	"errors"
	"sync"
	"time"
)

// DefaultTTL bounds how long a user may sit on the consent screen.
const DefaultTTL = 10 * time.Minute

var (
	ErrStateNotFound = errors.New("state not found")
	ErrStateExpired  = errors.New("state expired")
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface.
// Entries older than the TTL are treated as missing and pruned on write.
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*AuthFlowState
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*InMemoryRepo)

func WithTTL(ttl time.Duration) Option {
	return func(r *InMemoryRepo) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(r *InMemoryRepo) {
		r.now = now
	}
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo(options ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		states: make(map[string]*AuthFlowState),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Upsert stores or updates an auth flow state. A zero CreatedAt is stamped
// with the current time.
func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	stored := *authState
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	r.states[state] = &stored
	return nil
}

func (r *InMemoryRepo) Take(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, ErrStateNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authState, err := r.lookup(state)
	delete(r.states, state)
	return authState, err
}

// Delete removes an auth flow state
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

// lookup must be called with the lock held.
func (r *InMemoryRepo) lookup(state string) (*AuthFlowState, error) {
	authState, exists := r.states[state]
	if !exists {
		return nil, ErrStateNotFound
	}
	if r.now().Sub(authState.CreatedAt) > r.ttl {
		return nil, ErrStateExpired
	}

	// Return a copy to prevent external modifications
	cp := *authState
	return &cp, nil
}

func (r *InMemoryRepo) prune(now time.Time) {
	for k, v := range r.states {
		if now.Sub(v.CreatedAt) > r.ttl {
			delete(r.states, k)
		}
	}
}
