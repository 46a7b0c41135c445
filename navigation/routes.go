package navigation

// Routes the dashboard moves to after a session transition.
const (
	RouteHome         = "/"
	RouteLanding      = "/landing"
	RouteResetSuccess = "/login?reset=success"
)
