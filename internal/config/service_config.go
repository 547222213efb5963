package config

import "time"

type ServiceConfig interface {
	GetServiceURL() string
	GetErrorTTL() time.Duration
}

type Service struct{}

var _ ServiceConfig = Service{}

// GetServiceURL returns the base URL of the downstream EPD service.
func (Service) GetServiceURL() string {
	return GetEnv("SERVICE_URL", "")
}

// GetErrorTTL returns how long captured error records stay retrievable.
func (Service) GetErrorTTL() time.Duration {
	return GetEnvMinutes("ERROR_TTL_MINUTES", 60)
}
