package auth

import (
	"context"
	"fmt"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

// Session is the authenticated caller of one request.
type Session struct {
	UserID string
	Email  string
	Role   string
}

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s.UserID != ""
}

// Require returns the caller's session or ErrUnauthenticated.
func Require(ctx context.Context) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Session{}, fmt.Errorf("no session: %w", svcErr.ErrUnauthenticated)
	}
	return s, nil
}
