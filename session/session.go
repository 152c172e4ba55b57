package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyToken is returned when saving a blank token.
var ErrEmptyToken = errors.New("session: empty token")

// Session is the explicit session context handed to everything that needs
// the bearer token. A non-empty stored token is the only signal of being
// authenticated; expiry is left to the server.
type Session struct {
	store Store
}

// New wraps store.
func New(store Store) *Session {
	return &Session{store: store}
}

// CurrentToken returns the stored token, or "" when absent.
func (s *Session) CurrentToken() (string, error) {
	if s == nil || s.store == nil {
		return "", nil
	}
	token, ok, err := s.store.Get(TokenKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(token), nil
}

// Token implements augment.TokenSource.
func (s *Session) Token(context.Context) (string, error) {
	return s.CurrentToken()
}

// Authenticated reports whether a token is present. Store errors count as
// unauthenticated.
func (s *Session) Authenticated() bool {
	token, err := s.CurrentToken()
	return err == nil && token != ""
}

// Save persists token, replacing any previous one.
func (s *Session) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if s == nil || s.store == nil {
		return errors.New("session: no store configured")
	}
	if err := s.store.Set(TokenKey, token); err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	return nil
}

// Clear removes the token.
func (s *Session) Clear() error {
	if s == nil || s.store == nil {
		return nil
	}
	if err := s.store.Delete(TokenKey); err != nil {
		return fmt.Errorf("session: clear token: %w", err)
	}
	return nil
}
