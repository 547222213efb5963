package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/epdlink/adproxy/identity"
	"github.com/epdlink/adproxy/internal/config"
	"github.com/epdlink/adproxy/kvstore"
)

const (
	authStateKeyPrefix = "authstate:"
	authStateTTL       = 10 * time.Minute
)

type OidcConfig struct {
	OidcProvider *oidc.Provider
	OAuth2Config *oauth2.Config
	OidcVerifier *oidc.IDTokenVerifier
}

// NewOidcConfig discovers the issuer and builds the authorization-code flow
// configuration used to authenticate browsers.
func NewOidcConfig(ctx context.Context, cfg config.OidcConfig) (*OidcConfig, error) {
	provider, err := oidc.NewProvider(ctx, cfg.GetIssuerURL())
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %q: %w", cfg.GetIssuerURL(), err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.GetOidcClientID(),
		ClientSecret: cfg.GetOidcClientSecret(),
		RedirectURL:  cfg.GetRedirectURL(),
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &OidcConfig{
		OidcProvider: provider,
		OAuth2Config: oauth2Config,
		OidcVerifier: provider.Verifier(&oidc.Config{ClientID: cfg.GetOidcClientID()}),
	}, nil
}

// authFlowState is the short-lived per-login state kept between the redirect
// to the identity provider and its callback.
type authFlowState struct {
	Nonce     string `json:"nonce"`
	ReturnURL string `json:"returnUrl"`
}

// LoginHandler sends the browser to the identity provider
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := randomToken()
		flowState := authFlowState{
			Nonce:     randomToken(),
			ReturnURL: r.URL.Query().Get("return_url"),
		}

		payload, err := json.Marshal(flowState)
		if err != nil {
			s.redirectWithStoredError(w, r, fmt.Errorf("marshal login state: %w", err))
			return
		}
		if err := s.authState().Set(r.Context(), authStateKeyPrefix+state, string(payload), authStateTTL); err != nil {
			s.redirectWithStoredError(w, r, fmt.Errorf("store login state: %w", err))
			return
		}

		authURL := s.oidc.OAuth2Config.AuthCodeURL(state, oidc.Nonce(flowState.Nonce))
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// CallbackHandler exchanges the authorization code, verifies the ID token and
// turns its claims into a session. Authentication failures are captured in the
// vault and surfaced only as an opaque id, like every other failure.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		// Check for authorization errors
		if errorParam != "" {
			s.redirectWithStoredError(w, r, fmt.Errorf("authorization failed: %s - %s", errorParam, errorDesc))
			return
		}

		if code == "" || state == "" {
			s.redirectWithStoredError(w, r, errors.New("missing code or state parameter"))
			return
		}

		flowState, err := s.takeAuthState(r.Context(), state)
		if err != nil {
			s.redirectWithStoredError(w, r, fmt.Errorf("invalid state parameter: %w", err))
			return
		}

		oauth2Token, err := s.oidc.OAuth2Config.Exchange(r.Context(), code)
		if err != nil {
			s.redirectWithStoredError(w, r, fmt.Errorf("token exchange failed: %w", err))
			return
		}

		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			s.redirectWithStoredError(w, r, errors.New("no id token in response"))
			return
		}

		idToken, err := s.oidc.OidcVerifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			s.redirectWithStoredError(w, r, fmt.Errorf("id token verification failed: %w", err))
			return
		}

		// Validate nonce to prevent replay attacks
		if idToken.Nonce != flowState.Nonce {
			s.redirectWithStoredError(w, r, errors.New("invalid nonce"))
			return
		}

		claims, err := claimsFromIDToken(idToken)
		if err != nil {
			s.redirectWithStoredError(w, r, err)
			return
		}

		sessionID, err := s.sessions.Create(r.Context(), claims)
		if err != nil {
			s.redirectWithStoredError(w, r, fmt.Errorf("create session: %w", err))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		returnURL := flowState.ReturnURL
		if returnURL == "" {
			returnURL = "/"
		}
		http.Redirect(w, r, returnURL, http.StatusFound)
	}
}

// takeAuthState loads and consumes the login-flow state for a state value
func (s *Server) takeAuthState(ctx context.Context, state string) (authFlowState, error) {
	var flowState authFlowState

	payload, err := s.authState().Get(ctx, authStateKeyPrefix+state)
	if err != nil {
		return flowState, fmt.Errorf("load login state: %w", err)
	}
	// Clean up state after use
	if err := s.authState().Delete(ctx, authStateKeyPrefix+state); err != nil {
		return flowState, fmt.Errorf("consume login state: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &flowState); err != nil {
		return flowState, fmt.Errorf("unmarshal login state: %w", err)
	}
	return flowState, nil
}

// claimsFromIDToken maps the ID token's claims onto the recognized claim set.
// Unrecognized claims are dropped; value shapes beyond strings (e.g. the
// array-valued emails claim some providers emit) are flattened.
func claimsFromIDToken(idToken *oidc.IDToken) (identity.Claims, error) {
	var raw map[string]any
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("decode id token claims: %w", err)
	}

	known := []string{
		identity.ClaimObjectID,
		identity.ClaimSubject,
		identity.ClaimGivenName,
		identity.ClaimSurname,
		identity.ClaimName,
		identity.ClaimEmail,
		identity.ClaimEmails,
		identity.ClaimPreferredUsername,
	}

	claims := make(identity.Claims, len(known))
	for _, key := range known {
		switch value := raw[key].(type) {
		case string:
			if value != "" {
				claims[key] = value
			}
		case []any:
			if len(value) > 0 {
				if first, ok := value[0].(string); ok && first != "" {
					claims[key] = first
				}
			}
		}
	}

	return claims, nil
}

// authState reuses the session store's backing kvstore for login-flow state
func (s *Server) authState() kvstore.Store {
	return s.sessions.store
}

func randomToken() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
