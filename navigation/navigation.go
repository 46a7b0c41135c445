// Package navigation turns session events into route changes.
package navigation

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-session/session"
)

// Navigator moves the user interface to a route.
type Navigator interface {
	Navigate(route string) error
}

// Subscriber is the part of session.Manager the Router needs.
type Subscriber interface {
	Subscribe(fn session.Observer) (unsubscribe func())
}

// RouteFor returns the route for an event kind. ok is false for events that
// do not navigate.
func RouteFor(kind session.EventKind) (route string, ok bool) {
	switch kind {
	case session.EventLoggedIn, session.EventRegistered:
		return RouteHome, true
	case session.EventLoggedOut:
		return RouteLanding, true
	case session.EventPasswordReset:
		return RouteResetSuccess, true
	default:
		return "", false
	}
}

// Router forwards each navigating event to a Navigator exactly once.
type Router struct {
	nav         Navigator
	unsubscribe func()
	once        sync.Once
}

func NewRouter(sub Subscriber, nav Navigator) *Router {
	r := &Router{nav: nav}
	r.unsubscribe = sub.Subscribe(r.handle)
	return r
}

func (r *Router) handle(ev session.Event) {
	route, ok := RouteFor(ev.Kind)
	if !ok {
		return
	}
	if err := r.nav.Navigate(route); err != nil {
		log.Err(err).Str("route", route).Stringer("event", ev.Kind).Msg("Navigation failed")
	}
}

// Close stops routing.
func (r *Router) Close() {
	r.once.Do(r.unsubscribe)
}

// Recorder is a Navigator that remembers every route it was sent to.
type Recorder struct {
	mu     sync.Mutex
	routes []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Navigate(route string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
	return nil
}

// Routes returns a copy of the routes navigated to, oldest first.
func (r *Recorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

// NavigatorFunc adapts a function to a Navigator.
type NavigatorFunc func(route string) error

func (f NavigatorFunc) Navigate(route string) error {
	return f(route)
}
