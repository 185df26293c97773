package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Login, Refresh & Logout
	RouteAuthLogin   = "/api/auth/login"
	RouteAuthRefresh = "/api/auth/refresh"
	RouteAuthLogout  = "/api/auth/logout"

	// Auth Routes - External identity providers
	RouteOAuthRedirect  = "/api/auth/oauth/{provider}"
	RouteOAuthCallback  = "/api/auth/oauth/{provider}/callback"
	RouteFederatedLogin = "/api/auth/federated-login"

	// User Routes
	RouteUsers   = "/api/users"
	RouteUsersMe = "/api/users/me"

	// Admin Routes
	RouteAdminUsers = "/api/admin/users"

	RouteHealth = "/health"
)
