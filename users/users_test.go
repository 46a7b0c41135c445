package users_test

import (
	"encoding/json"
	"testing"

	sessionerrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/users"
	fakeuserrepo "github.com/jrsteele09/go-auth-session/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestUserJSONNeverCarriesPasswordHash(t *testing.T) {
	u := users.User{ID: "u1", Email: "a@b.com", Name: "A", Role: users.RoleUser, PasswordHash: "secret-hash"}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"u1","email":"a@b.com","name":"A","role":"user"}`, string(data))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := users.HashPassword("password123")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("password123", hash))
	require.False(t, users.CheckPasswordHash("password124", hash))
}

func TestRolesAndValidity(t *testing.T) {
	require.True(t, (&users.User{Role: users.RoleAdmin}).IsAdmin())
	require.False(t, (&users.User{Role: users.RoleUser}).IsAdmin())

	var missing *users.User
	require.False(t, missing.IsAdmin())
	require.False(t, missing.Valid())
	require.False(t, (&users.User{ID: "u1"}).Valid())
	require.True(t, (&users.User{ID: "u1", Email: "a@b.com"}).Valid())
}

func TestFakeRepoIsCaseInsensitiveOnEmail(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	require.NoError(t, repo.Upsert(&users.User{Email: "Trader@BagBot.com", Name: "Trader"}))

	u, err := repo.GetByEmail("trader@bagbot.com")
	require.NoError(t, err)
	require.Equal(t, "trader@bagbot.com", u.Email)
	require.NotEmpty(t, u.ID)

	byID, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)

	_, err = repo.GetByEmail("someone-else@bagbot.com")
	require.ErrorIs(t, err, sessionerrors.ErrUserNotFound)
}
