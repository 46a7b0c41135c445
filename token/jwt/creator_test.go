package jwt_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/config"
	sessionerrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/jrsteele09/go-auth-session/token/jwt"
	"github.com/jrsteele09/go-auth-session/users"
	"github.com/stretchr/testify/require"
)

var testUser = &users.User{ID: "u1", Email: "a@b.com", Name: "A", Role: users.RoleAdmin}

func TestCreateAndVerify(t *testing.T) {
	creator := jwt.NewCreator(config.Stub{})

	raw, err := creator.CreateAccessToken(testUser)
	require.NoError(t, err)

	claims, err := creator.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, "a@b.com", claims.Email)
	require.Equal(t, users.RoleAdmin, claims.Role)
	require.NotEmpty(t, claims.ID)

	exp, ok := token.Expiry(raw)
	require.True(t, ok)
	require.Equal(t, claims.ExpiresAt.Unix(), exp.Unix())
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	creator := jwt.NewCreator(config.Stub{})

	jwt.NowTimeFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := creator.CreateAccessToken(testUser)
	jwt.NowTimeFunc = time.Now
	require.NoError(t, err)

	_, err = creator.Verify(raw)
	require.ErrorIs(t, err, sessionerrors.ErrTokenExpired)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "one")
	raw, err := jwt.NewCreator(config.Stub{}).CreateAccessToken(testUser)
	require.NoError(t, err)

	t.Setenv("TOKEN_SECRET", "two")
	_, err = jwt.NewCreator(config.Stub{}).Verify(raw)
	require.ErrorIs(t, err, sessionerrors.ErrInvalidToken)

	_, err = jwt.NewCreator(config.Stub{}).Verify("not-a-jwt")
	require.ErrorIs(t, err, sessionerrors.ErrInvalidToken)
}
