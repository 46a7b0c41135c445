package token

import (
	"sync"
	"time"
)

// Revocations remembers which access tokens were issued to whom so that all
// of a user's tokens can be withdrawn at once, e.g. after a password reset.
type Revocations struct {
	mu      sync.RWMutex
	issued  map[string]map[string]time.Time // subject -> jti -> exp
	revoked map[string]time.Time            // jti -> exp
}

func NewRevocations() *Revocations {
	return &Revocations{
		issued:  make(map[string]map[string]time.Time),
		revoked: make(map[string]time.Time),
	}
}

// Track records a newly issued token.
func (r *Revocations) Track(subject, jti string, exp time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.issued[subject] == nil {
		r.issued[subject] = make(map[string]time.Time)
	}
	r.issued[subject][jti] = exp
}

// RevokeSubject revokes every tracked token of subject and returns how many there were.
func (r *Revocations) RevokeSubject(subject string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	tokens := r.issued[subject]
	for jti, exp := range tokens {
		r.revoked[jti] = exp
	}
	delete(r.issued, subject)
	r.cleanup(NowTimeFunc())
	return len(tokens)
}

func (r *Revocations) IsRevoked(jti string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.revoked[jti]
	return exists
}

// cleanup drops entries whose token has expired anyway. r.mu must be held.
func (r *Revocations) cleanup(now time.Time) {
	for jti, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, jti)
		}
	}
	for subject, tokens := range r.issued {
		for jti, exp := range tokens {
			if now.After(exp) {
				delete(tokens, jti)
			}
		}
		if len(tokens) == 0 {
			delete(r.issued, subject)
		}
	}
}
