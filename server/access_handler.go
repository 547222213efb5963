package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/epdlink/adproxy/epd"
	"github.com/epdlink/adproxy/errorvault"
	"github.com/epdlink/adproxy/identity"
)

// AccessHandler proxies one authenticated request: resolve the caller
// identity from session claims, obtain the machine token, ask the EPD
// service for a landing URL and redirect the browser there.
//
// Failure tiers:
//   - missing claims: warning, request proceeds
//   - token acquisition: logged only, plain redirect to the error page
//     (grant errors can carry secrets and are never persisted)
//   - anything else: stored in the vault, redirect with the opaque id
func (s *Server) AccessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			return
		}
		s.handleAccess(w, r, claims)
	}
}

func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request, claims identity.Claims) {
	ctx := r.Context()

	caller := identity.Resolve(claims)
	if caller.SubjectID == "" {
		log.Warn().Interface("claims", claims).Msg("Couldn't get subject id from claims")
	}
	if caller.DisplayName == "" {
		log.Warn().Interface("claims", claims).Msg("Couldn't get display name from claims")
	}
	if caller.Email == "" {
		log.Warn().Interface("claims", claims).Msg("Couldn't get email from claims")
	}

	token, err := s.tokens.GetToken(ctx)
	if err != nil {
		log.Err(err).Msg("Failed to get token")
		http.Redirect(w, r, RouteError, http.StatusFound)
		return
	}

	request := epd.AccessRequest{
		Actor: epd.Actor{
			DisplayName: caller.DisplayName,
			UID:         caller.SubjectID,
		},
	}

	redirectURL, err := s.epd.RequestAccess(ctx, token, request)
	if err != nil {
		s.redirectWithStoredError(w, r, err)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// redirectWithStoredError captures err in the vault and redirects with the
// opaque id. A vault failure degrades to a redirect without an id; nothing
// escapes to the transport layer.
func (s *Server) redirectWithStoredError(w http.ResponseWriter, r *http.Request, cause error) {
	record := errorvault.Record{
		Message: cause.Error(),
		Stack:   string(debug.Stack()),
		Path:    r.URL.Path,
		TimeUTC: time.Now().UTC(),
	}

	errorID, err := s.vault.Store(r.Context(), record)
	if err != nil {
		log.Err(err).Msg("Failed while handling a request failure")
		http.Redirect(w, r, RouteError, http.StatusFound)
		return
	}

	log.Err(cause).Str("error_id", errorID).Msg("Request failed, stored error record")
	http.Redirect(w, r, RouteError+"?errorid="+errorID, http.StatusFound)
}
