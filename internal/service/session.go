package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/ports"
)

const sessionTokenBytes = 32

// DefaultSessionTTL bounds session lifetime when none is configured.
const DefaultSessionTTL = 8 * time.Hour

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store ports.SessionStore
	TTL   time.Duration

	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

// SessionManager creates, resolves, and destroys server-side sessions and
// owns the anti-forgery token bound to each session.
//
// Every operation is total over its declared return type: absence is reported
// as nil/no-op rather than an error, so racing requests for the same client
// (a double-submitted logout, say) degrade safely.
type SessionManager struct {
	store ports.SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionManager{store: opts.Store, ttl: ttl, now: now}, nil
}

// Create establishes a session for a verified identity. Both the session
// token and the anti-forgery token are freshly generated, so no token the
// client held before sign-in can name the new session (fixation defense).
func (m *SessionManager) Create(ctx context.Context, identity domainauth.Identity) (domainauth.Session, error) {
	if identity.UserID == "" {
		return domainauth.Session{}, errors.New("identity is required")
	}

	now := m.now()
	sess := domainauth.Session{
		Token:     randomToken(),
		UserID:    identity.UserID,
		Name:      identity.DisplayName,
		Role:      identity.Role,
		CSRFToken: randomToken(),
		CreatedAt: now,
		RotatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Resolve returns the session for a token, or nil when the token is unknown,
// malformed, destroyed, or expired. Malformed input is simply "no session".
func (m *SessionManager) Resolve(ctx context.Context, token string) (*domainauth.Session, error) {
	if token == "" {
		return nil, nil
	}

	sess, err := m.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Expired(m.now()) {
		// Lazy cleanup; the store's TTL normally handles this.
		if delErr := m.store.Delete(ctx, token); delErr != nil {
			return nil, fmt.Errorf("cleanup expired session: %w", delErr)
		}
		return nil, nil
	}

	return &sess, nil
}

// Destroy invalidates the session for a token. Destroying an unknown or
// already-destroyed token is a no-op.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RotateAntiForgery issues a fresh anti-forgery token for the session,
// invalidating the previous one. Rotating an unknown or destroyed token is a
// no-op returning an empty string.
func (m *SessionManager) RotateAntiForgery(ctx context.Context, token string) (string, error) {
	sess, err := m.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", nil
	}

	sess.CSRFToken = randomToken()
	sess.RotatedAt = m.now()
	if err := m.store.Save(ctx, *sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return sess.CSRFToken, nil
}

// randomToken returns a fresh 256-bit URL-safe random token.
func randomToken() string {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the process cannot mint any secret
		// safely; refusing to continue beats a guessable token.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
