package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteAccess,
		ChainMiddleware(s.AccessHandler(), s.LoggingMiddleware, s.RecoverMiddleware, s.RequireSession))

	// The error page stays reachable without a session: it is the landing
	// spot for failures, including authentication ones.
	s.RegisterRouteFunc("GET "+RouteError,
		ChainMiddleware(s.ErrorHandler(), s.LoggingMiddleware, s.RecoverMiddleware))

	if s.oidc != nil {
		s.RegisterRouteFunc("GET "+RouteLogin,
			ChainMiddleware(s.LoginHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
		s.RegisterRouteFunc("GET "+RouteCallback,
			ChainMiddleware(s.CallbackHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
	}

	s.RegisterRouteFunc("GET "+RouteLogout,
		ChainMiddleware(s.LogoutHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
}

var _ http.Handler = (*Server)(nil)
