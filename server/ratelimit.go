package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"golang.org/x/time/rate"
)

// limiterTTL is how long an idle client keeps its bucket.
const limiterTTL = 10 * time.Minute

// multiLimiter keeps one token bucket per client key.
type multiLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	entries map[string]*limBucket
}

type limBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newMultiLimiter(limit rate.Limit, burst int, ttl time.Duration) *multiLimiter {
	if burst < 1 {
		burst = 1
	}
	return &multiLimiter{
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		entries: make(map[string]*limBucket),
	}
}

func (m *multiLimiter) allow(key string) bool {
	if m.limit == rate.Inf {
		return true
	}

	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.entries[key]
	if b == nil {
		b = &limBucket{lim: rate.NewLimiter(m.limit, m.burst), lastSeen: now}
		m.entries[key] = b
	}
	b.lastSeen = now

	for k, v := range m.entries {
		if now.Sub(v.lastSeen) > m.ttl {
			delete(m.entries, k)
		}
	}
	return b.lim.Allow()
}

// RateLimitMiddleware throttles credential-bearing endpoints per client IP.
func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(getClientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, r, apperrors.ErrTooManyRequests)
			return
		}
		next(w, r)
	}
}

// getClientIP keys the limiter on the connection's address. Forwarding
// headers only count when TRUST_PROXY_HEADERS lets middleware.RealIP rewrite
// RemoteAddr from them.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
