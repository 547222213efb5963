package config

import "time"

type TokenConfig interface {
	GetTokenEndpoint() string
	GetClientID() string
	GetClientSecret() string
	GetClientScope() string
	GetTokenCacheTTL() time.Duration
}

type Token struct{}

var _ TokenConfig = Token{}

func (Token) GetTokenEndpoint() string {
	return GetEnv("TOKEN_ENDPOINT", "")
}

func (Token) GetClientID() string {
	return GetEnv("TOKEN_CLIENT_ID", "")
}

func (Token) GetClientSecret() string {
	return GetEnv("TOKEN_CLIENT_SECRET", "")
}

func (Token) GetClientScope() string {
	return GetEnv("TOKEN_CLIENT_SCOPE", "")
}

// GetTokenCacheTTL returns the cache lifetime for acquired access tokens.
// Kept shorter than the real token lifetime so an entry is never served stale.
func (Token) GetTokenCacheTTL() time.Duration {
	return GetEnvMinutes("TOKEN_CACHE_MINUTES", 2)
}
