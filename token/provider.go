// Package token acquires and caches the machine-to-machine access token used
// to call the downstream EPD service. It implements exactly one grant type,
// client credentials, for one fixed client/scope pair.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	apperrors "github.com/epdlink/adproxy/internal/errors"
	"github.com/epdlink/adproxy/kvstore"
)

// Credentials holds the client-credentials grant parameters. Immutable,
// loaded once at startup and owned by the Provider for its lifetime.
type Credentials struct {
	ClientID      string
	ClientSecret  string
	Scope         string
	TokenEndpoint string
}

// Provider fetches-or-renews an access token for a single (clientId, scope)
// pair. Tokens live in the cache under a deterministic key with an absolute
// TTL shorter than the real token lifetime; expiry is enforced by the store.
type Provider struct {
	creds    Credentials
	cache    kvstore.Store
	cacheTTL time.Duration
	grant    *clientcredentials.Config
}

// New creates a Provider over the given cache
func New(creds Credentials, cache kvstore.Store, cacheTTL time.Duration) *Provider {
	return &Provider{
		creds:    creds,
		cache:    cache,
		cacheTTL: cacheTTL,
		grant: &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     creds.TokenEndpoint,
			Scopes:       []string{creds.Scope},
		},
	}
}

// CacheKey returns the cache key for this provider's client/scope pair.
// Distinct pairs produce distinct keys.
func (p *Provider) CacheKey() string {
	return fmt.Sprintf("$token$clientId=%s/$scope=%s", p.creds.ClientID, p.creds.Scope)
}

// GetToken returns a valid access token, from cache when possible.
//
// Concurrent cache misses for the same key may each trigger a redundant grant
// call; every caller still receives a valid token, so no deduplication is done.
// Grant failures are never cached and never retried here.
func (p *Provider) GetToken(ctx context.Context) (string, error) {
	key := p.CacheKey()

	cached, err := p.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		log.Err(err).Msg("Token cache read failed, falling through to the token endpoint")
	}

	log.Info().
		Str("client_id", p.creds.ClientID).
		Str("scope", p.creds.Scope).
		Msg("Renewing access token")

	tok, err := p.grant.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			log.Error().
				Str("error_code", retrieveErr.ErrorCode).
				Str("error_description", retrieveErr.ErrorDescription).
				Msg("Token endpoint rejected the grant")
		} else {
			log.Err(err).Msg("Token endpoint call failed")
		}
		return "", apperrors.Wrapf(apperrors.ErrTokenAcquisition, "client credentials grant for %s", p.creds.ClientID)
	}

	if err := p.cache.Set(ctx, key, tok.AccessToken, p.cacheTTL); err != nil {
		// The grant succeeded; a cache write failure only costs the next
		// caller a renewal.
		log.Err(err).Msg("Failed to cache access token")
	}

	return tok.AccessToken, nil
}
