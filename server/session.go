package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/epdlink/adproxy/internal/errors"
	"github.com/epdlink/adproxy/identity"
	"github.com/epdlink/adproxy/kvstore"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the authenticated session's claim set
const ContextKeyClaims ContextKey = "claims"

const sessionCookieName = "session_id"
const sessionKeyPrefix = "session:"

// SessionStore keeps the claim snapshot of each authenticated browser
// session in the key/value store, under the session-cookie id.
type SessionStore struct {
	store kvstore.Store
	ttl   time.Duration
}

// NewSessionStore creates a SessionStore; sessions expire after ttl.
func NewSessionStore(store kvstore.Store, ttl time.Duration) *SessionStore {
	return &SessionStore{store: store, ttl: ttl}
}

// Create stores claims under a fresh session id and returns the id
func (s *SessionStore) Create(ctx context.Context, claims identity.Claims) (string, error) {
	id := uuid.New()
	sessionID := hex.EncodeToString(id[:])

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal session claims: %w", err)
	}
	if err := s.store.Set(ctx, sessionKeyPrefix+sessionID, string(payload), s.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return sessionID, nil
}

// Get retrieves the claims for a session id
func (s *SessionStore) Get(ctx context.Context, sessionID string) (identity.Claims, error) {
	payload, err := s.store.Get(ctx, sessionKeyPrefix+sessionID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var claims identity.Claims
	if err := json.Unmarshal([]byte(payload), &claims); err != nil {
		return nil, fmt.Errorf("unmarshal session claims: %w", err)
	}
	return claims, nil
}

// Delete removes a session
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionKeyPrefix+sessionID)
}

// RequireSession validates the session cookie and injects the session's
// claims into the request context. Unauthenticated browsers go to login.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			return
		}

		claims, err := s.sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, apperrors.ErrSessionNotFound) {
				log.Err(err).Msg("Session lookup failed")
			}
			http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
		next(w, r.WithContext(ctx))
	}
}

// ClaimsFromContext returns the claim set injected by RequireSession
func ClaimsFromContext(ctx context.Context) (identity.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(identity.Claims)
	return claims, ok
}

// LogoutHandler clears the session and sends the browser back to login
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if err := s.sessions.Delete(r.Context(), cookie.Value); err != nil {
				log.Err(err).Msg("Failed to delete session")
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}
