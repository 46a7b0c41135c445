// Package authstub is an in-memory Auth API that speaks the same JSON as the
// production service. It backs the integration tests and `cmd/authstub`.
package authstub

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/jrsteele09/go-auth-session/token/jwt"
	"github.com/jrsteele09/go-auth-session/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-auth-session/token/refresh/repofake"
	"github.com/jrsteele09/go-auth-session/users"
	fakeuserrepo "github.com/jrsteele09/go-auth-session/users/repofake"
)

// Config is everything the stub reads from the environment.
type Config interface {
	config.EnvConfig
	config.CorsConfig
	config.StubConfig
}

// Seeded accounts, matching the demo backend.
var seedUsers = []struct {
	ID       string
	Email    string
	Password string
	Name     string
	Role     users.RoleType
}{
	{ID: "user_default_001", Email: "test@bagbot.com", Password: "password123", Name: "Test User", Role: users.RoleUser},
	{ID: "admin_default_001", Email: "admin@bagbot.com", Password: "admin123", Name: "Admin User", Role: users.RoleAdmin},
}

type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   Config
	users    users.UserRepo
	access   *jwt.Creator
	refresh  *refresh.Manager
	resets   *resetTokens
	revoked  *token.Revocations
	requests atomic.Int64

	// serialises password and account changes
	accountsLock sync.Mutex
}

func New(cfg Config) (*Server, error) {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		users:   fakeuserrepo.NewFakeUserRepo(),
		access:  jwt.NewCreator(cfg),
		refresh: refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), cfg),
		resets:  newResetTokens(cfg.GetResetTokenExpiry()),
		revoked: token.NewRevocations(),
	}
	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("[authstub New] failed to seed users: %w", err)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// Requests is the number of requests that reached a handler.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// ResetToken returns the newest unused reset token issued for email. The
// production service emails it instead.
func (s *Server) ResetToken(email string) (string, bool) {
	return s.resets.latest(users.NormalizeEmail(email))
}

// issueAccessToken signs an access token and tracks it for revocation.
func (s *Server) issueAccessToken(user *users.User) (string, error) {
	raw, claims, err := s.access.Issue(user)
	if err != nil {
		return "", err
	}
	s.revoked.Track(claims.Subject, claims.ID, claims.ExpiresAt)
	return raw, nil
}

// revokeUser withdraws every access and refresh token issued to userID.
func (s *Server) revokeUser(userID string) error {
	n := s.revoked.RevokeSubject(userID)
	log.Info().Str("user_id", userID).Int("access_tokens", n).Msg("Revoked tokens")
	return s.refresh.RevokeUser(userID)
}

func (s *Server) seed() error {
	now := nowISO()
	for _, su := range seedUsers {
		hash, err := users.HashPassword(su.Password)
		if err != nil {
			return err
		}
		err = s.users.Upsert(&users.User{
			ID:           su.ID,
			Email:        su.Email,
			Name:         su.Name,
			Role:         su.Role,
			CreatedAt:    now,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Debug().Str("method", method).Str("path", path).Msg("Route registered")
	}
}
