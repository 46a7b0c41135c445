package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Expiry peeks at the exp claim of a JWT without verifying its signature.
// ok is false for opaque tokens and for JWTs without an exp claim; the
// client cannot verify either, only the Auth API can.
func Expiry(raw string) (exp time.Time, ok bool) {
	if raw == "" {
		return time.Time{}, false
	}
	unverified, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	expClaim, err := unverified.Claims.GetExpirationTime()
	if err != nil || expClaim == nil {
		return time.Time{}, false
	}
	return expClaim.Time, true
}

// IsExpired is true only for a JWT whose exp is at or before now.
func IsExpired(raw string, now time.Time) bool {
	exp, ok := Expiry(raw)
	if !ok {
		return false
	}
	return !now.Before(exp)
}
