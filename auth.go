// Package augment provides the Go client for the image augmentation service:
// account registration and login, OTP email verification, and the
// basic/advanced/rotation/random augmentation endpoints.
package augment

import (
	"context"
	"net/http"
	"strings"

	"github.com/augmentlab/augment-go/headers"
)

// TokenSource yields the bearer token for the current session.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

type authStrategy interface {
	Apply(ctx context.Context, req *http.Request) error
}

type authChain []authStrategy

func (c authChain) Apply(ctx context.Context, req *http.Request) error {
	for _, s := range c {
		if s == nil {
			continue
		}
		if err := s.Apply(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

type bearerAuth struct {
	source TokenSource
}

func (b bearerAuth) Apply(ctx context.Context, req *http.Request) error {
	if b.source == nil {
		return nil
	}
	token, err := b.source.Token(ctx)
	if err != nil {
		return err
	}
	token = normalizeBearer(token)
	if token == "" {
		return nil
	}
	req.Header.Set(headers.Authorization, "Bearer "+token)
	return nil
}

func normalizeBearer(token string) string {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
