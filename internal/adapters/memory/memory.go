// Package memory provides in-memory adapters for development mode and tests.
// They are safe for concurrent use; mutation and lookup of the same key are
// serialized by a mutex so readers never observe a half-written record.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/ports"
)

// Compile-time conformance to ports.
var (
	_ ports.UserStore    = (*UserStore)(nil)
	_ ports.SessionStore = (*SessionStore)(nil)
)

// UserStore is a map-backed user store keyed by login identifier.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domainauth.User
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domainauth.User)}
}

// Put inserts or replaces a user record.
func (s *UserStore) Put(user domainauth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(user.Identifier)] = user
}

// FindByIdentifier returns the user for a login identifier.
func (s *UserStore) FindByIdentifier(_ context.Context, identifier string) (domainauth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[strings.ToLower(identifier)]
	if !ok {
		return domainauth.User{}, ports.ErrUserNotFound
	}
	return user, nil
}

// Identifiers returns the known login identifiers, sorted.
func (s *UserStore) Identifiers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.users))
	for id := range s.users {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SessionStore is a map-backed session store keyed by session token.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domainauth.Session)}
}

// Save stores or replaces the session record for its token.
func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.Token == "" {
		return errors.New("session token cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

// Get returns the session record for a token.
func (s *SessionStore) Get(_ context.Context, token string) (domainauth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes the session record for a token. Unknown tokens are a no-op.
func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Len reports the number of live session records.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
