package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc(http.MethodGet, RouteHealth, s.HealthHandler())

	// LOGIN
	s.RegisterRouteFunc(http.MethodPost, RouteAuthLogin, s.LoginHandler(), s.RateLimitMiddleware)
	s.RegisterRouteFunc(http.MethodPost, RouteAuthRefresh, s.RefreshHandler(), s.RateLimitMiddleware)
	s.RegisterRouteFunc(http.MethodPost, RouteAuthLogout, s.LogoutHandler(), s.RequireAuth())

	// External identity providers
	s.RegisterRouteFunc(http.MethodGet, RouteOAuthRedirect, s.OAuthRedirectHandler(), s.RateLimitMiddleware)
	s.RegisterRouteFunc(http.MethodGet, RouteOAuthCallback, s.OAuthCallbackHandler())
	s.RegisterRouteFunc(http.MethodPost, RouteFederatedLogin, s.FederatedLoginHandler(), s.RateLimitMiddleware)

	// Users
	s.RegisterRouteFunc(http.MethodPost, RouteUsers, s.RegisterHandler(), s.RateLimitMiddleware)
	s.RegisterRouteFunc(http.MethodGet, RouteUsersMe, s.MeHandler(), s.RequireAuth())
	s.RegisterRouteFunc(http.MethodPatch, RouteUsersMe, s.UpdateMeHandler(), s.RequireAuth())

	// Admin routes
	s.RegisterRouteFunc(http.MethodGet, RouteAdminUsers, s.AdminUsersListHandler(), s.AdminMiddleware()...)
}
