package authapi

// Auth API route paths, relative to the configured base URL
const (
	RouteLogin          = "/auth/login"
	RouteRegister       = "/auth/register"
	RouteForgotPassword = "/auth/forgot-password"
	RouteResetPassword  = "/auth/reset-password"
	RouteValidate       = "/auth/validate"
	RouteToken          = "/auth/token"
)
