// Package session holds the client-side authentication session: who is signed
// in, the tokens issued for them, and the operations that change either.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-session/authapi"
	sessionerrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/internal/metrics"
	"github.com/jrsteele09/go-auth-session/internal/utils"
	"github.com/jrsteele09/go-auth-session/store"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/jrsteele09/go-auth-session/users"
)

const (
	opLogin          = "login"
	opRegister       = "register"
	opLogout         = "logout"
	opForgotPassword = "forgot_password"
	opResetPassword  = "reset_password"
	opRefresh        = "refresh"
	opValidate       = "validate"
)

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the clock used to judge access-token expiry during hydration.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns the session state. It is safe for concurrent use.
type Manager struct {
	api   AuthAPI
	store store.Store
	now   func() time.Time

	mu             sync.Mutex
	user           *users.User
	tokens         *token.Pair
	verified       bool
	err            *Error
	inFlight       int
	generation     uint64
	cancelIdentity context.CancelFunc
	closed         bool

	closing  context.Context
	closeAll context.CancelFunc

	obsMu     sync.Mutex
	observers []subscription
	nextObsID int
}

type subscription struct {
	id int
	fn Observer
}

// operation tracks one call from begin to end.
type operation struct {
	name     string
	ctx      context.Context
	gen      uint64
	identity bool
	cancel   context.CancelFunc
	stop     func() bool
}

// New builds a Manager and restores any session found in st.
func New(api AuthAPI, st store.Store, opts ...Option) *Manager {
	m := &Manager{
		api:   api,
		store: st,
		now:   func() time.Time { return token.NowTimeFunc() },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.closing, m.closeAll = context.WithCancel(context.Background())
	m.hydrate()
	return m
}

// Login exchanges credentials for a session. No validation happens client side.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*users.User, error) {
	op, err := m.begin(ctx, opLogin, true, true)
	if err != nil {
		return nil, err
	}
	defer m.end(op)

	log.Info().Str("email", creds.Email).Msg("Login attempt")
	resp, err := m.api.Login(op.ctx, authapi.Credentials{Email: creds.Email, Password: creds.Password})
	return m.establish(op, resp, err, CodeLogin, msgLoginFailed, EventLoggedIn)
}

// Register creates an account and signs it in. Mismatched passwords fail
// before any request is sent.
func (m *Manager) Register(ctx context.Context, data RegisterData) (*users.User, error) {
	matching := data.Password == data.ConfirmPassword
	op, err := m.begin(ctx, opRegister, matching, true)
	if err != nil {
		return nil, err
	}
	defer m.end(op)

	if !matching {
		return nil, m.reject(op, CodeRegister, msgPasswordMismatch, sessionerrors.ErrPasswordMismatch)
	}
	resp, err := m.api.Register(op.ctx, authapi.RegisterRequest{Email: data.Email, Password: data.Password, Name: data.Name})
	return m.establish(op, resp, err, CodeRegister, msgRegisterFailed, EventRegistered)
}

// Logout clears the session locally. It never calls the Auth API and is
// safe to call when nobody is signed in. Any in-flight login, register or
// refresh is cancelled and its result discarded.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.supersede()
	err := m.store.Delete(store.SessionKeys...)
	m.user, m.tokens, m.verified = nil, nil, false
	m.mu.Unlock()

	if err != nil {
		log.Err(err).Msg("Failed to clear stored session")
		metrics.ObserveOperation(opLogout, metrics.OutcomeFailure)
	} else {
		log.Info().Msg("Logged out")
		metrics.ObserveOperation(opLogout, metrics.OutcomeSuccess)
	}
	m.emit(Event{Kind: EventLoggedOut})
	if err != nil {
		return fmt.Errorf("clearing stored session: %w", err)
	}
	return nil
}

// ForgotPassword asks the Auth API to send a reset email.
func (m *Manager) ForgotPassword(ctx context.Context, data ForgotPasswordData) error {
	op, err := m.begin(ctx, opForgotPassword, false, true)
	if err != nil {
		return err
	}
	defer m.end(op)

	if err := m.api.ForgotPassword(op.ctx, authapi.ForgotPasswordRequest{Email: data.Email}); err != nil {
		return m.fail(op, CodeForgotPassword, msgForgotPasswordFailed, err)
	}
	m.succeed(op, Event{Kind: EventResetRequested})
	return nil
}

// ResetPassword sets a new password using a reset token. It does not sign in.
func (m *Manager) ResetPassword(ctx context.Context, data ResetPasswordData) error {
	op, err := m.begin(ctx, opResetPassword, false, true)
	if err != nil {
		return err
	}
	defer m.end(op)

	if data.Password != data.ConfirmPassword {
		return m.reject(op, CodeResetPassword, msgPasswordMismatch, sessionerrors.ErrPasswordMismatch)
	}
	if err := m.api.ResetPassword(op.ctx, authapi.ResetPasswordRequest{Token: data.Token, Password: data.Password}); err != nil {
		return m.fail(op, CodeResetPassword, msgResetPasswordFailed, err)
	}
	m.succeed(op, Event{Kind: EventPasswordReset})
	return nil
}

// RefreshToken trades the stored refresh token for a new pair. Any failure
// signs the user out. Refresh errors are returned but never recorded in the
// error slot.
func (m *Manager) RefreshToken(ctx context.Context) error {
	op, err := m.begin(ctx, opRefresh, true, false)
	if err != nil {
		return err
	}
	defer m.end(op)

	refreshToken, user, err := m.storedRefreshState()
	if err != nil {
		log.Warn().Err(err).Msg("Cannot refresh session")
		metrics.ObserveOperation(opRefresh, metrics.OutcomeRejected)
		m.forceLogout(op)
		return err
	}

	pair, err := m.api.Refresh(op.ctx, refreshToken)
	if err == nil {
		err = m.commit(op, *user, *pair)
	}
	if err != nil {
		if sessionerrors.Is(err, sessionerrors.ErrSuperseded) || !m.isCurrent(op) {
			metrics.ObserveOperation(opRefresh, metrics.OutcomeSuperseded)
			return sessionerrors.ErrSuperseded
		}
		log.Err(err).Msg("Token refresh failed")
		metrics.ObserveOperation(opRefresh, metrics.OutcomeFailure)
		m.forceLogout(op)
		return fmt.Errorf("refreshing session: %w", err)
	}
	m.succeed(op, Event{Kind: EventRefreshed, User: user})
	return nil
}

// Validate asks the Auth API whether the current access token is still good.
// A 401 or 403 signs the user out; other failures leave the session as is.
func (m *Manager) Validate(ctx context.Context) error {
	op, err := m.begin(ctx, opValidate, false, false)
	if err != nil {
		return err
	}
	defer m.end(op)

	m.mu.Lock()
	tokens := m.tokens
	m.mu.Unlock()
	if tokens == nil {
		return sessionerrors.ErrNotLoggedIn
	}

	if err := m.api.Validate(op.ctx, tokens.AccessToken); err != nil {
		metrics.ObserveOperation(opValidate, metrics.OutcomeFailure)
		var apiErr *authapi.APIError
		if sessionerrors.As(err, &apiErr) && apiErr.Unauthorized() {
			log.Warn().Int("status", apiErr.Status).Msg("Access token rejected, logging out")
			m.forceLogout(op)
			return fmt.Errorf("%w: %w", sessionerrors.ErrInvalidToken, err)
		}
		return fmt.Errorf("validating session: %w", err)
	}

	m.mu.Lock()
	if op.gen == m.generation {
		m.verified = true
	}
	m.mu.Unlock()
	metrics.ObserveOperation(opValidate, metrics.OutcomeSuccess)
	return nil
}

// ClearError empties the error slot and nothing else.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.err = nil
	m.mu.Unlock()
}

// Subscribe registers fn for every committed transition. Calling the returned
// function removes it.
func (m *Manager) Subscribe(fn Observer) (unsubscribe func()) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.nextObsID++
	id := m.nextObsID
	m.observers = append(m.observers, subscription{id: id, fn: fn})

	return func() {
		m.obsMu.Lock()
		defer m.obsMu.Unlock()
		m.observers = slices.DeleteFunc(m.observers, func(s subscription) bool { return s.id == id })
	}
}

// Close cancels in-flight operations and drops every observer. Later calls
// that would reach the Auth API fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.closeAll()
	m.obsMu.Lock()
	m.observers = nil
	m.obsMu.Unlock()
}

func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := State{
		Loading:  m.inFlight > 0,
		Verified: m.verified,
	}
	if m.user != nil {
		s.User = utils.Ptr(*m.user)
	}
	if m.tokens != nil {
		s.Tokens = utils.Ptr(*m.tokens)
	}
	if m.err != nil {
		s.Err = utils.Ptr(*m.err)
	}
	return s
}

func (m *Manager) User() *users.User {
	return m.Snapshot().User
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight > 0
}

func (m *Manager) Error() *Error {
	return m.Snapshot().Err
}

// begin registers an operation. Identity operations take a new generation and
// cancel the previous identity operation.
func (m *Manager) begin(ctx context.Context, name string, identity, clearErr bool) (*operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, sessionerrors.ErrClosed
	}

	opCtx, cancel := context.WithCancel(ctx)
	op := &operation{
		name:     name,
		ctx:      opCtx,
		identity: identity,
		cancel:   cancel,
		stop:     context.AfterFunc(m.closing, cancel),
	}
	if identity {
		m.supersede()
		m.cancelIdentity = cancel
	}
	op.gen = m.generation
	if clearErr {
		m.err = nil
	}
	m.inFlight++
	metrics.SessionInFlight.Inc()
	return op, nil
}

func (m *Manager) end(op *operation) {
	op.stop()
	op.cancel()
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
	metrics.SessionInFlight.Dec()
}

// supersede must be called with m.mu held.
func (m *Manager) supersede() {
	m.generation++
	if m.cancelIdentity != nil {
		m.cancelIdentity()
		m.cancelIdentity = nil
	}
}

func (m *Manager) isCurrent(op *operation) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return op.gen == m.generation
}

// forceLogout signs out unless op has already been overtaken by another
// identity change.
func (m *Manager) forceLogout(op *operation) {
	if !m.isCurrent(op) {
		return
	}
	if err := m.Logout(); err != nil {
		log.Err(err).Str("operation", op.name).Msg("Forced logout failed")
	}
}

func (m *Manager) establish(op *operation, resp *authapi.AuthResponse, err error, code Code, fallback string, kind EventKind) (*users.User, error) {
	if err == nil {
		err = m.commit(op, resp.User, resp.Tokens)
	}
	if err != nil {
		return nil, m.fail(op, code, fallback, err)
	}
	user := resp.User
	m.succeed(op, Event{Kind: kind, User: utils.Ptr(user)})
	return &user, nil
}

// commit writes the new identity to the store and then to memory. Nothing is
// written when op is stale.
func (m *Manager) commit(op *operation, user users.User, pair token.Pair) error {
	if !user.Valid() || pair.AccessToken == "" {
		return fmt.Errorf("%w: auth api response is missing the user or access token", sessionerrors.ErrInvalidToken)
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if op.gen != m.generation {
		return sessionerrors.ErrSuperseded
	}
	err = m.store.Put(map[string]string{
		store.KeyAccessToken:  pair.AccessToken,
		store.KeyRefreshToken: pair.RefreshToken,
		store.KeyUser:         string(userJSON),
	})
	if err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	m.user = &user
	m.tokens = &pair
	m.verified = true
	return nil
}

func (m *Manager) succeed(op *operation, ev Event) {
	l := log.Info().Str("operation", op.name).Stringer("event", ev.Kind)
	if ev.User != nil {
		l = l.Str("user_id", ev.User.ID)
	}
	l.Msg("Session operation succeeded")
	metrics.ObserveOperation(op.name, metrics.OutcomeSuccess)
	m.emit(ev)
}

// fail records a coded error. The message is the Auth API's detail when it
// sent one, fallback otherwise. A stale identity operation records nothing and
// reports ErrSuperseded.
func (m *Manager) fail(op *operation, code Code, fallback string, cause error) error {
	m.mu.Lock()
	if op.identity && (op.gen != m.generation || sessionerrors.Is(cause, sessionerrors.ErrSuperseded)) {
		m.mu.Unlock()
		log.Debug().Str("operation", op.name).Msg("Discarding superseded result")
		metrics.ObserveOperation(op.name, metrics.OutcomeSuperseded)
		return sessionerrors.ErrSuperseded
	}
	message := authapi.DetailOf(cause)
	if message == "" {
		message = fallback
	}
	e := &Error{Code: code, Message: message, Err: cause}
	m.err = e
	m.mu.Unlock()

	log.Err(cause).Str("operation", op.name).Str("code", string(code)).Msg(message)
	metrics.ObserveOperation(op.name, metrics.OutcomeFailure)
	return e
}

// reject records a client-side validation failure.
func (m *Manager) reject(op *operation, code Code, message string, cause error) error {
	e := &Error{Code: code, Message: message, Err: cause}
	m.mu.Lock()
	m.err = e
	m.mu.Unlock()
	log.Debug().Str("operation", op.name).Str("code", string(code)).Msg(message)
	metrics.ObserveOperation(op.name, metrics.OutcomeRejected)
	return e
}

func (m *Manager) emit(ev Event) {
	m.obsMu.Lock()
	subs := slices.Clone(m.observers)
	m.obsMu.Unlock()
	for _, s := range subs {
		s.fn(ev)
	}
}
