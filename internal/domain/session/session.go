// Package session carries the authenticated identity through context.
package session

import (
	"context"
	"errors"
	"strings"
)

// ErrNoSession is returned when an operation needs an owner and none is known.
var ErrNoSession = errors.New("no authenticated session")

// Session is the identity supplied by the auth provider.
type Session struct {
	OwnerID     string
	AccessToken string
}

type ctxKey struct{}

// With returns a copy of ctx carrying s.
func With(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by With.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Owner returns the owner id on ctx, or ErrNoSession.
func Owner(ctx context.Context) (string, error) {
	s, ok := FromContext(ctx)
	if !ok || strings.TrimSpace(s.OwnerID) == "" {
		return "", ErrNoSession
	}
	return s.OwnerID, nil
}

// RequireOwner fails with ErrNoSession on a blank owner id.
func RequireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrNoSession
	}
	return nil
}
