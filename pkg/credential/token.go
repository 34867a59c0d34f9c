package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtExpiry extracts the exp claim from an access token without
// verifying its signature. The proxy is a client of the backend, not a
// validator of its tokens; the claim is only used to schedule refreshes.
func jwtExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
