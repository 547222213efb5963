package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// The single proxied endpoint
	RouteAccess = "/{$}"

	// Error display
	RouteError = "/Error"

	// Browser authentication
	RouteLogin    = "/login"
	RouteCallback = "/callback"
	RouteLogout   = "/logout"
)
