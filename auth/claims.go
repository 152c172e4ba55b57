// Package auth inspects the access tokens issued by the augmentation service.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims encodes the JWT claims embedded into access tokens.
//
// The service signs tokens with a secret the client never sees, so claims
// are read without verification and are informational only. The session
// is still considered authenticated purely by the presence of a token.
type Claims struct {
	Fresh     bool   `json:"fresh,omitempty"`
	TokenType string `json:"type,omitempty"`
	CSRF      string `json:"csrf,omitempty"`

	jwt.RegisteredClaims
}

// Identity returns the account email the token was issued for.
func (c Claims) Identity() string {
	return c.Subject
}

// ExpiresAt returns the expiry, or the zero time if the token has none.
func (c Claims) ExpiresAt() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// Expired reports whether the token's exp lies before now.
func (c Claims) Expired(now time.Time) bool {
	exp := c.ExpiresAt()
	return !exp.IsZero() && now.After(exp)
}

// ErrNotJWT is returned for tokens that are not three dot-separated segments.
var ErrNotJWT = errors.New("auth: token is not a JWT")

// Inspect decodes the claims of token without checking its signature.
func Inspect(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if !IsJWTLike(token) {
		return Claims{}, ErrNotJWT
	}
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("auth: parse token: %w", err)
	}
	return claims, nil
}

// IsJWTLike reports whether token has the three base64url segments of a JWT.
func IsJWTLike(token string) bool {
	t := strings.TrimSpace(token)
	if t == "" {
		return false
	}
	return strings.Count(t, ".") == 2
}
