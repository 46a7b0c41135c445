package session_test

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-auth-session/authapi"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/jrsteele09/go-auth-session/token"
)

var _ session.AuthAPI = (*fakeAPI)(nil)

var errUnexpectedCall = errors.New("unexpected auth api call")

// fakeAPI answers with whatever function the test installs and counts calls.
type fakeAPI struct {
	mu    sync.Mutex
	calls int

	login          func(ctx context.Context, creds authapi.Credentials) (*authapi.AuthResponse, error)
	register       func(ctx context.Context, req authapi.RegisterRequest) (*authapi.AuthResponse, error)
	forgotPassword func(ctx context.Context, req authapi.ForgotPasswordRequest) error
	resetPassword  func(ctx context.Context, req authapi.ResetPasswordRequest) error
	validate       func(ctx context.Context, accessToken string) error
	refresh        func(ctx context.Context, refreshToken string) (*token.Pair, error)
}

func (f *fakeAPI) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) Login(ctx context.Context, creds authapi.Credentials) (*authapi.AuthResponse, error) {
	f.count()
	if f.login == nil {
		return nil, errUnexpectedCall
	}
	return f.login(ctx, creds)
}

func (f *fakeAPI) Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.AuthResponse, error) {
	f.count()
	if f.register == nil {
		return nil, errUnexpectedCall
	}
	return f.register(ctx, req)
}

func (f *fakeAPI) ForgotPassword(ctx context.Context, req authapi.ForgotPasswordRequest) error {
	f.count()
	if f.forgotPassword == nil {
		return errUnexpectedCall
	}
	return f.forgotPassword(ctx, req)
}

func (f *fakeAPI) ResetPassword(ctx context.Context, req authapi.ResetPasswordRequest) error {
	f.count()
	if f.resetPassword == nil {
		return errUnexpectedCall
	}
	return f.resetPassword(ctx, req)
}

func (f *fakeAPI) Validate(ctx context.Context, accessToken string) error {
	f.count()
	if f.validate == nil {
		return errUnexpectedCall
	}
	return f.validate(ctx, accessToken)
}

func (f *fakeAPI) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	f.count()
	if f.refresh == nil {
		return nil, errUnexpectedCall
	}
	return f.refresh(ctx, refreshToken)
}
