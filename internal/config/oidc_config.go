package config

import "time"

type OidcConfig interface {
	GetIssuerURL() string
	GetOidcClientID() string
	GetOidcClientSecret() string
	GetRedirectURL() string
	GetSessionTTL() time.Duration
}

type Oidc struct{}

var _ OidcConfig = Oidc{}

func (Oidc) GetIssuerURL() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Oidc) GetOidcClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Oidc) GetOidcClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (Oidc) GetRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", "http://localhost:8080/callback")
}

func (Oidc) GetSessionTTL() time.Duration {
	return time.Duration(GetEnvInt("SESSION_TTL_HOURS", 8)) * time.Hour
}
