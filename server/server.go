package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/epdlink/adproxy/epd"
	"github.com/epdlink/adproxy/errorvault"
	"github.com/epdlink/adproxy/internal/config"
	"github.com/epdlink/adproxy/kvstore"
)

// TokenSource supplies the machine-to-machine access token for downstream calls.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

// AccessRequester calls the downstream EPD access endpoint.
type AccessRequester interface {
	RequestAccess(ctx context.Context, token string, request epd.AccessRequest) (string, error)
}

type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	tokens   TokenSource
	epd      AccessRequester
	vault    *errorvault.Vault
	sessions *SessionStore
	oidc     *OidcConfig // nil when no issuer is configured
}

// New wires the request-handling surface. The oidc argument may be nil; the
// login routes are then not registered (sessions must be created out of band,
// e.g. by tests).
func New(cfg config.Config, store kvstore.Store, tokens TokenSource, epdClient AccessRequester, oidc *OidcConfig) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		tokens:   tokens,
		epd:      epdClient,
		vault:    errorvault.New(store, cfg.GetErrorTTL()),
		sessions: NewSessionStore(store, cfg.GetSessionTTL()),
		oidc:     oidc,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Sessions exposes the session store for out-of-band session creation.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("Route registered")
		} else {
			log.Info().Str("path", parts[0]).Msg("Route registered")
		}
	}
}
