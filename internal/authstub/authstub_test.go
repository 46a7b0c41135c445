package authstub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-session/authapi"
	"github.com/jrsteele09/go-auth-session/internal/authstub"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/jrsteele09/go-auth-session/users"
)

type testFixture struct {
	stub   *authstub.Server
	server *httptest.Server
	client *authapi.Client
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	stub, err := authstub.New(config.New())
	require.NoError(t, err)
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)
	return &testFixture{
		stub:   stub,
		server: server,
		client: authapi.New(server.URL),
	}
}

func requireAPIError(t *testing.T, err error, status int, detail string) {
	t.Helper()
	var apiErr *authapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.Status)
	require.Equal(t, detail, apiErr.Detail)
}

func TestLoginSeededUsers(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	resp, err := f.client.Login(ctx, authapi.Credentials{Email: "Test@BagBot.com", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, "user_default_001", resp.User.ID)
	require.Equal(t, "test@bagbot.com", resp.User.Email)
	require.Equal(t, users.RoleUser, resp.User.Role)
	require.NotEmpty(t, resp.User.LastLogin)
	require.NotEmpty(t, resp.Tokens.RefreshToken)
	_, isJWT := token.Expiry(resp.Tokens.AccessToken)
	require.True(t, isJWT)

	admin, err := f.client.Login(ctx, authapi.Credentials{Email: "admin@bagbot.com", Password: "admin123"})
	require.NoError(t, err)
	require.True(t, admin.User.IsAdmin())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.client.Login(context.Background(), authapi.Credentials{Email: "test@bagbot.com", Password: "nope"})
	requireAPIError(t, err, http.StatusUnauthorized, "Invalid email or password")

	_, err = f.client.Login(context.Background(), authapi.Credentials{Email: "ghost@bagbot.com", Password: "password123"})
	requireAPIError(t, err, http.StatusUnauthorized, "Invalid email or password")
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	resp, err := f.client.Register(ctx, authapi.RegisterRequest{Email: "New@Example.com", Password: "pw", Name: "New"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.User.ID, "user_"))
	require.Equal(t, "new@example.com", resp.User.Email)
	require.Equal(t, users.RoleUser, resp.User.Role)
	require.NotEmpty(t, resp.Tokens.AccessToken)

	_, err = f.client.Register(ctx, authapi.RegisterRequest{Email: "new@example.com", Password: "pw", Name: "Again"})
	requireAPIError(t, err, http.StatusBadRequest, "Email already registered")

	_, err = f.client.Login(ctx, authapi.Credentials{Email: "new@example.com", Password: "pw"})
	require.NoError(t, err)
}

func TestMalformedBodyUsesFieldErrorDetail(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := http.Post(f.server.URL+authapi.RouteLogin, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, err = f.client.Register(context.Background(), authapi.RegisterRequest{Password: "pw", Name: "No Email"})
	requireAPIError(t, err, http.StatusUnprocessableEntity, "field required")
}

func TestPasswordResetFlow(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.client.ForgotPassword(ctx, authapi.ForgotPasswordRequest{Email: "unknown@bagbot.com"}))
	_, ok := f.stub.ResetToken("unknown@bagbot.com")
	require.False(t, ok)

	before, err := f.client.Login(ctx, authapi.Credentials{Email: "test@bagbot.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, f.client.ForgotPassword(ctx, authapi.ForgotPasswordRequest{Email: "test@bagbot.com"}))
	resetToken, ok := f.stub.ResetToken("TEST@bagbot.com")
	require.True(t, ok)

	require.NoError(t, f.client.ResetPassword(ctx, authapi.ResetPasswordRequest{Token: resetToken, Password: "changed"}))

	// tokens issued before the reset are withdrawn
	err = f.client.Validate(ctx, before.Tokens.AccessToken)
	requireAPIError(t, err, http.StatusUnauthorized, "Invalid or expired token")
	_, err = f.client.Refresh(ctx, before.Tokens.RefreshToken)
	requireAPIError(t, err, http.StatusBadRequest, "invalid refresh token")

	_, err = f.client.Login(ctx, authapi.Credentials{Email: "test@bagbot.com", Password: "password123"})
	requireAPIError(t, err, http.StatusUnauthorized, "Invalid email or password")
	_, err = f.client.Login(ctx, authapi.Credentials{Email: "test@bagbot.com", Password: "changed"})
	require.NoError(t, err)

	err = f.client.ResetPassword(ctx, authapi.ResetPasswordRequest{Token: resetToken, Password: "again"})
	requireAPIError(t, err, http.StatusBadRequest, "Invalid or expired reset token")
}

func TestResetTokenExpires(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.client.ForgotPassword(ctx, authapi.ForgotPasswordRequest{Email: "test@bagbot.com"}))
	resetToken, ok := f.stub.ResetToken("test@bagbot.com")
	require.True(t, ok)

	authstub.NowTimeFunc = func() time.Time { return time.Now().Add(2 * time.Hour) }
	t.Cleanup(func() { authstub.NowTimeFunc = time.Now })

	err := f.client.ResetPassword(ctx, authapi.ResetPasswordRequest{Token: resetToken, Password: "changed"})
	requireAPIError(t, err, http.StatusBadRequest, "Reset token has expired")
}

func TestValidate(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	resp, err := f.client.Login(ctx, authapi.Credentials{Email: "test@bagbot.com", Password: "password123"})
	require.NoError(t, err)
	require.NoError(t, f.client.Validate(ctx, resp.Tokens.AccessToken))

	err = f.client.Validate(ctx, "opaque-token")
	requireAPIError(t, err, http.StatusUnauthorized, "Invalid or expired token")
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	resp, err := f.client.Login(ctx, authapi.Credentials{Email: "test@bagbot.com", Password: "password123"})
	require.NoError(t, err)

	pair, err := f.client.Refresh(ctx, resp.Tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEqual(t, resp.Tokens.RefreshToken, pair.RefreshToken)
	require.NoError(t, f.client.Validate(ctx, pair.AccessToken))

	_, err = f.client.Refresh(ctx, resp.Tokens.RefreshToken)
	requireAPIError(t, err, http.StatusBadRequest, "invalid refresh token")
}

func TestCorsPreflight(t *testing.T) {
	f := setupTestFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.server.URL+authapi.RouteLogin, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dashboard.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRequestsCounted(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, 0, f.stub.Requests())

	_, _ = f.client.Login(context.Background(), authapi.Credentials{Email: "test@bagbot.com", Password: "x"})
	require.NoError(t, f.client.ForgotPassword(context.Background(), authapi.ForgotPasswordRequest{Email: "x@y.z"}))
	require.Equal(t, 2, f.stub.Requests())
}
