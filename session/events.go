package session

import "github.com/jrsteele09/go-auth-session/users"

// EventKind identifies a committed session transition.
type EventKind int

const (
	EventLoggedIn EventKind = iota + 1
	EventRegistered
	EventLoggedOut
	EventResetRequested
	EventPasswordReset
	EventRefreshed
)

func (k EventKind) String() string {
	switch k {
	case EventLoggedIn:
		return "logged_in"
	case EventRegistered:
		return "registered"
	case EventLoggedOut:
		return "logged_out"
	case EventResetRequested:
		return "reset_requested"
	case EventPasswordReset:
		return "password_reset"
	case EventRefreshed:
		return "refreshed"
	default:
		return "unknown"
	}
}

// Event is delivered to observers after a transition is committed to the
// store and to memory. User is a copy and is nil once logged out.
type Event struct {
	Kind EventKind
	User *users.User
}

// Observer receives events synchronously on the goroutine that committed them.
type Observer func(Event)
