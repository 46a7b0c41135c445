package session

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	sessionerrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/store"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/jrsteele09/go-auth-session/users"
)

// hydrate restores the session persisted by a previous run. Anything it cannot
// trust leaves the manager logged out; the store itself is not modified.
func (m *Manager) hydrate() {
	accessToken, ok, err := m.store.Get(store.KeyAccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read stored access token")
		return
	}
	if !ok || accessToken == "" {
		return
	}

	user, err := m.storedUser()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to restore stored user, starting logged out")
		return
	}
	if user == nil {
		return
	}

	if token.IsExpired(accessToken, m.now()) {
		log.Info().Str("user_id", user.ID).Msg("Stored access token has expired, starting logged out")
		return
	}

	refreshToken, _, err := m.store.Get(store.KeyRefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read stored refresh token")
	}

	m.user = user
	m.tokens = &token.Pair{AccessToken: accessToken, RefreshToken: refreshToken}
	m.verified = false
	log.Info().Str("user_id", user.ID).Msg("Session restored")
}

// storedUser returns nil, nil when no user is stored.
func (m *Manager) storedUser() (*users.User, error) {
	raw, ok, err := m.store.Get(store.KeyUser)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var user users.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, sessionerrors.Wrapf(err, "decoding stored user")
	}
	if !user.Valid() {
		return nil, sessionerrors.Wrapf(sessionerrors.ErrUserNotFound, "stored user has no id or email")
	}
	return &user, nil
}

// storedRefreshState reads what a refresh needs from the store rather than
// memory, so a session persisted by another process can still be refreshed.
func (m *Manager) storedRefreshState() (string, *users.User, error) {
	refreshToken, ok, err := m.store.Get(store.KeyRefreshToken)
	if err != nil || !ok || refreshToken == "" {
		return "", nil, sessionerrors.ErrNoRefreshToken
	}
	user, err := m.storedUser()
	if err != nil || user == nil {
		return "", nil, sessionerrors.ErrNoRefreshToken
	}
	return refreshToken, user, nil
}
