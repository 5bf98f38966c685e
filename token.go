package goSession

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether the access token's exp claim has passed
// (or falls within leeway). The signature is deliberately not verified:
// this is a client-side preflight, the server remains the authority.
// Opaque tokens and JWTs without an exp claim are treated as live.
func tokenExpired(accessToken string, leeway time.Duration, now time.Time) bool {
	if accessToken == "" {
		return true
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return !now.Add(leeway).Before(exp.Time)
}
