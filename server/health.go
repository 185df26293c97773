package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const healthCheckTimeout = 2 * time.Second

const (
	healthOK       = "OK"
	healthDegraded = "DEGRADED"
	healthDown     = "UNAVAILABLE"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler reports the service version and pings each dependency.
// Any failing dependency turns the response into a 503.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    healthOK,
			Timestamp: time.Now().UTC(),
			Version:   s.config.GetAppVersion(),
			Service:   s.config.GetAppName(),
		}

		if len(s.checks) > 0 {
			resp.Checks = s.runChecks(r.Context())
			for _, result := range resp.Checks {
				if result != healthOK {
					resp.Status = healthDegraded
				}
			}
		}

		status := http.StatusOK
		if resp.Status != healthOK {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func (s *Server) runChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(s.checks))
	)
	for name, check := range s.checks {
		wg.Add(1)
		go func(name string, check HealthChecker) {
			defer wg.Done()
			result := healthOK
			if err := check.Ping(ctx); err != nil {
				log.Warn().Err(err).Str("check", name).Msg("health check failed")
				result = healthDown
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	return results
}
