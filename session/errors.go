package session

// Code classifies a failed session operation.
type Code string

const (
	CodeLogin          Code = "LOGIN_ERROR"
	CodeRegister       Code = "REGISTER_ERROR"
	CodeForgotPassword Code = "FORGOT_PASSWORD_ERROR"
	CodeResetPassword  Code = "RESET_PASSWORD_ERROR"
)

// Default messages used when the Auth API gives no detail.
const (
	msgLoginFailed          = "Login failed"
	msgRegisterFailed       = "Registration failed"
	msgForgotPasswordFailed = "Failed to send reset email"
	msgResetPasswordFailed  = "Failed to reset password"
	msgPasswordMismatch     = "Passwords do not match"
)

// Error is the {message, code} pair recorded in the session's error slot and
// returned to the caller. Validation failures and server rejections share this
// shape; Err keeps the underlying cause for errors.Is/As.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
