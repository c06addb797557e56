// Package token decodes the claims embedded in a bearer token without
// verifying its signature. The decoded expiry is used only to skip
// requests that the server would reject anyway; the server remains the
// sole authority on token validity and must reject expired or revoked
// tokens on every protected call.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalid is returned when a token cannot be decoded: wrong segment
// count, invalid base64, invalid JSON, or a missing expiry claim.
var ErrInvalid = errors.New("invalid token")

// Claims holds the subset of token claims the client cares about.
type Claims struct {
	// Subject is the user the token was issued for.
	Subject string

	// ExpiresAt is the instant the token stops being valid.
	ExpiresAt time.Time
}

// ExpiredAt reports whether the claims are expired as of now.
func (c Claims) ExpiredAt(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Decode parses the token's payload segment and extracts its claims.
// No signature verification is performed.
func Decode(raw string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, &jwt.RegisteredClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing exp claim", ErrInvalid)
	}

	return Claims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
