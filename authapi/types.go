package authapi

import (
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/jrsteele09/go-auth-session/users"
)

// Credentials is the POST /auth/login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the POST /auth/register body. The confirmation password
// never leaves the client.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User   users.User `json:"user"`
	Tokens token.Pair `json:"tokens"`
}

// ValidateResponse is returned by GET /auth/validate.
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// ErrorResponse is the failure body. FastAPI puts a string in detail for
// HTTP errors and a list of field errors for request validation failures.
type ErrorResponse struct {
	Detail any `json:"detail"`
}
