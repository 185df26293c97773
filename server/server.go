package server

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-bookstore-server/auth"
	"github.com/jrsteele09/go-bookstore-server/internal/config"
	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/server/authflowrepo"
	"github.com/jrsteele09/go-bookstore-server/users"
	"github.com/rs/zerolog/log"
)

// ConsentURLBuilder starts a redirect-based provider login. The state, nonce
// and PKCE challenge are bound to the returned consent screen URL.
type ConsentURLBuilder interface {
	AuthCodeURL(ctx context.Context, state, nonce, codeChallenge string) (string, error)
}

// HealthChecker is a dependency reported by /health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Services are the collaborators the HTTP layer delegates to.
type Services struct {
	Sessions  *auth.SessionService
	Users     *users.Service
	Consent   map[string]ConsentURLBuilder // providers that log in through a consent redirect
	AuthFlows authflowrepo.Repo            // defaults to an in-memory repo
	Checks    map[string]HealthChecker
}

type Server struct {
	router    chi.Router
	routes    []string
	config    config.Config
	sessions  *auth.SessionService
	users     *users.Service
	validator *auth.Validator
	consent   map[string]ConsentURLBuilder
	authState authflowrepo.Repo
	checks    map[string]HealthChecker
	limiter   *multiLimiter
}

func New(ctx context.Context, config config.Config, services Services) (*Server, error) {
	if services.Sessions == nil {
		return nil, fmt.Errorf("[Server New] session service is required")
	}
	if services.Users == nil {
		return nil, fmt.Errorf("[Server New] user service is required")
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    config,
		sessions:  services.Sessions,
		users:     services.Users,
		validator: auth.NewValidator(),
		consent:   services.Consent,
		authState: services.AuthFlows,
		checks:    services.Checks,
		limiter:   newMultiLimiter(config.GetLoginRateLimit(), config.GetLoginRateBurst(), limiterTTL),
	}
	if s.authState == nil {
		s.authState = authflowrepo.NewInMemoryRepo()
	}

	// Bootstrap: ensure the administrator account exists
	if err := s.InitialiseSystem(ctx); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.router.Use(middleware.RequestID)
	if config.GetTrustProxyHeaders() {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.SecurityHeadersMiddleware,
		s.CorsMiddleware,
	)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.ErrNotFound)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
	})

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRouteFunc mounts handler behind the per-route middleware mw.
func (s *Server) RegisterRouteFunc(method, pattern string, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) {
	s.routes = append(s.routes, method+" "+pattern)
	s.router.Method(method, pattern, ChainMiddleware(handler, mw...))
}

// Routes returns the registered "METHOD /path" patterns in sorted order.
func (s *Server) Routes() []string {
	routes := append([]string(nil), s.routes...)
	sort.Strings(routes)
	return routes
}

func (s *Server) logRoutes() {
	if !s.config.IsDev() {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, _ := strings.Cut(route, " ")
		logRoute(method, path)
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
