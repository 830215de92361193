package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
)

// ErrUserNotFound is returned by UserStore implementations when no record
// exists for an identifier.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound is returned by SessionStore implementations when no
// record exists for a token.
var ErrSessionNotFound = errors.New("session not found")

// UserStore looks up persisted user records. The store is external to the
// auth core: the core only reads from it and never writes.
type UserStore interface {
	// FindByIdentifier returns the user record for a login identifier.
	// A missing record is reported as ErrUserNotFound.
	FindByIdentifier(ctx context.Context, identifier string) (domainauth.User, error)
}

// SessionStore persists and retrieves server-side session records keyed by
// session token. Save must replace any existing record for the same token
// atomically; Get and Delete must be atomic with respect to each other.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, token string) (domainauth.Session, error)
	Delete(ctx context.Context, token string) error
}

// PasswordHasher hashes secrets and verifies a presented secret against a
// stored encoded hash. Verify must compare in constant time with respect to
// the stored hash.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encodedHash string) (bool, error)
}
