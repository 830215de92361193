package httpx

import (
	"context"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext retrieves the session from the request context,
// or nil when the request is anonymous.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session
	}
	return nil
}

// IsAuthenticated reports whether the current request context carries a valid session.
func IsAuthenticated(ctx context.Context) bool {
	return GetSessionFromContext(ctx) != nil
}
