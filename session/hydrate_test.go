package session_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/store"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestHydrate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	live := signedToken(t, now.Add(time.Hour))
	expired := signedToken(t, now.Add(-time.Minute))

	tests := []struct {
		name      string
		seed      map[string]string
		loggedIn  bool
		refreshed string
	}{
		{
			name:      "opaque token",
			seed:      loggedInSeed(),
			loggedIn:  true,
			refreshed: "r1",
		},
		{
			name:     "live jwt",
			seed:     map[string]string{store.KeyAccessToken: live, store.KeyUser: u1JSON},
			loggedIn: true,
		},
		{
			name: "expired jwt",
			seed: map[string]string{store.KeyAccessToken: expired, store.KeyRefreshToken: "r1", store.KeyUser: u1JSON},
		},
		{
			name: "malformed user",
			seed: map[string]string{store.KeyAccessToken: "t1", store.KeyRefreshToken: "r1", store.KeyUser: `{"id":`},
		},
		{
			name: "null user",
			seed: map[string]string{store.KeyAccessToken: "t1", store.KeyUser: "null"},
		},
		{
			name: "user without access token",
			seed: map[string]string{store.KeyRefreshToken: "r1", store.KeyUser: u1JSON},
		},
		{
			name: "access token without user",
			seed: map[string]string{store.KeyAccessToken: "t1"},
		},
		{
			name: "empty store",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f *testFixture
			require.NotPanics(t, func() {
				f = setupTestFixture(t, tt.seed, session.WithClock(func() time.Time { return now }))
			})

			state := f.manager.Snapshot()
			require.Equal(t, tt.loggedIn, state.Authenticated())
			require.Nil(t, state.Err)
			require.False(t, state.Loading)
			require.False(t, state.Verified)
			if tt.loggedIn {
				require.Equal(t, &u1, state.User)
				require.Equal(t, tt.refreshed, state.Tokens.RefreshToken)
			} else {
				require.Nil(t, state.Tokens)
			}

			// hydration never rewrites what it found
			require.Zero(t, f.store.Puts())
			require.Zero(t, f.store.Deletes())
			require.Empty(t, f.nav.Routes())
		})
	}
}
