package config

type Config interface {
	EnvConfig
	TokenConfig
	ServiceConfig
	OidcConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Token
	Service
	Oidc
	Store
}

func New() Config {
	return mainConfig{}
}
