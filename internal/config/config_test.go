package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/stretchr/testify/require"
)

func TestAPIURLDefaultsToRemoteHost(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_API_URL", "")
	t.Setenv("API_URL", "")
	require.Equal(t, config.DefaultAPIURL, config.New().GetAPIURL())
}

func TestAPIURLPrefersPublicVariable(t *testing.T) {
	t.Setenv("API_URL", "http://fallback:8000/api")
	t.Setenv("NEXT_PUBLIC_API_URL", "http://localhost:8000/api/")
	require.Equal(t, "http://localhost:8000/api", config.New().GetAPIURL())

	t.Setenv("NEXT_PUBLIC_API_URL", "")
	require.Equal(t, "http://fallback:8000/api", config.New().GetAPIURL())
}

func TestStorePathFollowsDriver(t *testing.T) {
	t.Setenv("STORE_PATH", "")
	t.Setenv("FOLDER", "/tmp/bagbot")

	t.Setenv("STORE_DRIVER", "file")
	require.Equal(t, filepath.Join("/tmp/bagbot", "session.json"), config.New().GetStorePath())

	t.Setenv("STORE_DRIVER", "bogus")
	require.Equal(t, config.StoreDriverSQLite, config.New().GetStoreDriver())
	require.Equal(t, filepath.Join("/tmp/bagbot", "session.db"), config.New().GetStorePath())
}

func TestDurationFallback(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	require.Equal(t, 15*time.Second, config.New().GetRequestTimeout())

	t.Setenv("REQUEST_TIMEOUT", "2s")
	require.Equal(t, 2*time.Second, config.New().GetRequestTimeout())
}

func TestPortIsPrefixed(t *testing.T) {
	t.Setenv("PORT", "9000")
	require.Equal(t, ":9000", config.New().GetPort())
}

func TestAllowedOriginsList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	origins := config.New().GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("http://a.test"))
	require.True(t, origins.IsAllowedOrigin("http://b.test"))
	require.False(t, origins.IsAllowedOrigin("*"))
}
