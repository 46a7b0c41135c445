package session

import (
	"context"

	"github.com/jrsteele09/go-auth-session/authapi"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/jrsteele09/go-auth-session/users"
)

// AuthAPI is the remote Auth API as the session manager sees it.
type AuthAPI interface {
	Login(ctx context.Context, creds authapi.Credentials) (*authapi.AuthResponse, error)
	Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.AuthResponse, error)
	ForgotPassword(ctx context.Context, req authapi.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req authapi.ResetPasswordRequest) error
	Validate(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*token.Pair, error)
}

var _ AuthAPI = (*authapi.Client)(nil)

type Credentials struct {
	Email    string
	Password string
}

type RegisterData struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
}

type ForgotPasswordData struct {
	Email string
}

type ResetPasswordData struct {
	Token           string
	Password        string
	ConfirmPassword string
}

// State is a point-in-time copy of the session.
type State struct {
	User    *users.User
	Tokens  *token.Pair
	Loading bool
	Err     *Error

	// Verified is true when the Auth API issued or confirmed the tokens during
	// this run; a session restored from the store stays unverified until Validate succeeds.
	Verified bool
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool {
	return s.User != nil
}
