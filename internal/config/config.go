package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	StoreConfig
	BreakerConfig
	CorsConfig
	StubConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

// ClientConfig configures the Auth API client used by the session manager.
type ClientConfig interface {
	GetAPIURL() string
	GetClientID() string
	GetRequestTimeout() time.Duration
}

type StoreConfig interface {
	GetStoreDriver() string
	GetStorePath() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Client
	Store
	Breaker
	Cors
	Stub
}

func New() Config {
	return mainConfig{}
}
