package config

import "time"

// StubConfig configures the in-memory Auth API used for tests and local development.
type StubConfig interface {
	GetTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetResetTokenExpiry() time.Duration
}

type Stub struct{}

var _ StubConfig = Stub{}

func (Stub) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "dev-only-secret-change-me")
}

func (Stub) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration("ACCESS_TOKEN_EXPIRY", 1*time.Hour)
}

func (Stub) GetRefreshTokenExpiry() time.Duration {
	return GetEnvDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)
}

func (Stub) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (Stub) GetResetTokenExpiry() time.Duration {
	return 1 * time.Hour
}
