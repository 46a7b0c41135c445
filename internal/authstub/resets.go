package authstub

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	sessionerrors "github.com/jrsteele09/go-auth-session/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type resetToken struct {
	email     string
	expiresAt time.Time
}

// resetTokens holds outstanding password reset tokens. Each is single use.
type resetTokens struct {
	expiry time.Duration

	mu      sync.Mutex
	tokens  map[string]resetToken
	byEmail map[string]string // newest token per email
}

func newResetTokens(expiry time.Duration) *resetTokens {
	return &resetTokens{
		expiry:  expiry,
		tokens:  make(map[string]resetToken),
		byEmail: make(map[string]string),
	}
}

func (rt *resetTokens) issue(email string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	tok := base64.RawURLEncoding.EncodeToString(b)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.tokens[tok] = resetToken{email: email, expiresAt: NowTimeFunc().Add(rt.expiry)}
	rt.byEmail[email] = tok
	return tok, nil
}

// consume returns the email a token was issued for and invalidates it.
func (rt *resetTokens) consume(tok string) (string, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	entry, ok := rt.tokens[tok]
	if !ok {
		return "", sessionerrors.ErrInvalidResetToken
	}
	delete(rt.tokens, tok)
	if rt.byEmail[entry.email] == tok {
		delete(rt.byEmail, entry.email)
	}
	if NowTimeFunc().After(entry.expiresAt) {
		return "", sessionerrors.ErrTokenExpired
	}
	return entry.email, nil
}

func (rt *resetTokens) latest(email string) (string, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	tok, ok := rt.byEmail[email]
	return tok, ok
}
