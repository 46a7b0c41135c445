package session_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-session/authapi"
	sessionerrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/navigation"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/store"
	"github.com/jrsteele09/go-auth-session/token"
)

func TestRefreshTokenRotatesPair(t *testing.T) {
	f := setupTestFixture(t, loggedInSeed())
	var presented string
	f.api.refresh = func(_ context.Context, refreshToken string) (*token.Pair, error) {
		presented = refreshToken
		return &token.Pair{AccessToken: "t2", RefreshToken: "r2"}, nil
	}

	require.NoError(t, f.manager.RefreshToken(context.Background()))
	require.Equal(t, "r1", presented)
	require.Equal(t, map[string]string{
		store.KeyAccessToken:  "t2",
		store.KeyRefreshToken: "r2",
		store.KeyUser:         u1JSON,
	}, f.store.Entries())

	state := f.manager.Snapshot()
	require.Equal(t, &u1, state.User)
	require.Equal(t, &token.Pair{AccessToken: "t2", RefreshToken: "r2"}, state.Tokens)
	require.True(t, state.Verified)
	require.Equal(t, []session.EventKind{session.EventRefreshed}, f.eventKinds())
	require.Empty(t, f.nav.Routes())
}

func TestRefreshTokenWithoutStoredTokenLogsOut(t *testing.T) {
	seed := loggedInSeed()
	delete(seed, store.KeyRefreshToken)
	f := setupTestFixture(t, seed)
	require.True(t, f.manager.IsAuthenticated())

	err := f.manager.RefreshToken(context.Background())
	require.ErrorIs(t, err, sessionerrors.ErrNoRefreshToken)
	require.Equal(t, "No refresh token", err.Error())

	require.Zero(t, f.api.Calls())
	require.False(t, f.manager.IsAuthenticated())
	require.Empty(t, f.store.Entries())
	require.Nil(t, f.manager.Error())
	require.Equal(t, []string{navigation.RouteLanding}, f.nav.Routes())
}

func TestRefreshTokenWithMalformedUserLogsOut(t *testing.T) {
	f := setupTestFixture(t, map[string]string{store.KeyRefreshToken: "r1", store.KeyUser: "{"})

	err := f.manager.RefreshToken(context.Background())
	require.ErrorIs(t, err, sessionerrors.ErrNoRefreshToken)
	require.Zero(t, f.api.Calls())
	require.Equal(t, []string{navigation.RouteLanding}, f.nav.Routes())
}

func TestRefreshTokenFailureLogsOutWithoutRecordingError(t *testing.T) {
	f := setupTestFixture(t, loggedInSeed())
	f.api.refresh = func(context.Context, string) (*token.Pair, error) {
		return nil, &authapi.APIError{Status: http.StatusBadRequest, Detail: "invalid refresh token"}
	}

	err := f.manager.RefreshToken(context.Background())
	require.Error(t, err)
	var sErr *session.Error
	require.False(t, sessionerrors.As(err, &sErr))

	require.False(t, f.manager.IsAuthenticated())
	require.Empty(t, f.store.Entries())
	require.Nil(t, f.manager.Error())
	require.False(t, f.manager.IsLoading())
	require.Equal(t, []string{navigation.RouteLanding}, f.nav.Routes())
}

func TestValidate(t *testing.T) {
	t.Run("not logged in", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		require.ErrorIs(t, f.manager.Validate(context.Background()), sessionerrors.ErrNotLoggedIn)
		require.Zero(t, f.api.Calls())
	})

	t.Run("accepted", func(t *testing.T) {
		f := setupTestFixture(t, loggedInSeed())
		var presented string
		f.api.validate = func(_ context.Context, accessToken string) error {
			presented = accessToken
			return nil
		}
		require.False(t, f.manager.Snapshot().Verified)
		require.NoError(t, f.manager.Validate(context.Background()))
		require.Equal(t, "t1", presented)
		require.True(t, f.manager.Snapshot().Verified)
	})

	t.Run("unauthorized logs out", func(t *testing.T) {
		f := setupTestFixture(t, loggedInSeed())
		f.api.validate = func(context.Context, string) error {
			return &authapi.APIError{Status: http.StatusUnauthorized, Detail: "Invalid or expired token"}
		}
		err := f.manager.Validate(context.Background())
		require.ErrorIs(t, err, sessionerrors.ErrInvalidToken)
		require.False(t, f.manager.IsAuthenticated())
		require.Empty(t, f.store.Entries())
		require.Equal(t, []string{navigation.RouteLanding}, f.nav.Routes())
	})

	t.Run("unavailable keeps session", func(t *testing.T) {
		f := setupTestFixture(t, loggedInSeed())
		f.api.validate = func(context.Context, string) error {
			return authapi.ErrCircuitOpen
		}
		err := f.manager.Validate(context.Background())
		require.ErrorIs(t, err, authapi.ErrCircuitOpen)
		require.True(t, f.manager.IsAuthenticated())
		require.False(t, f.manager.Snapshot().Verified)
		require.Equal(t, loggedInSeed(), f.store.Entries())
		require.Empty(t, f.nav.Routes())
	})
}
