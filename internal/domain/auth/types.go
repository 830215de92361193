package auth

// Package auth contains domain-level types for authentication, sessions,
// and authorization decisions. It is pure and free of adapter concerns.

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Kept in string form for easy persistence and JSON encoding.
// Valid values are defined as constants below.
type Role string

const (
	// RoleStandard is the default role for signed-in users.
	RoleStandard Role = "standard"
	// RolePrivileged grants access to capabilities gated on elevated access.
	RolePrivileged Role = "privileged"
)

// UnmarshalText implements encoding.TextUnmarshaler for Role.
func (r *Role) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "standard", "privileged":
		*r = Role(v)
		return nil
	default:
		return fmt.Errorf("invalid Role: %q (valid options: standard, privileged)", v)
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RolePrivileged
}

// Capability names registered at boot. Route binding validates these against
// the gate registry and aborts startup on any unregistered name.
const (
	// CapabilityArticlesView grants read access to articles (any signed-in user).
	CapabilityArticlesView = "articles.view"
	// CapabilityArticlesEdit grants create/update/delete access to articles.
	CapabilityArticlesEdit = "articles.edit"
)

// Identity represents the authenticated principal. It is produced by the
// user store and is read-only to the rest of the system.
type Identity struct {
	UserID      string // stable, unique identifier
	DisplayName string
	Role        Role
}

// User is the persisted user record as stored by the external user store.
// SecretHash is a PHC-encoded password hash; the plaintext secret is never
// stored or logged anywhere in this codebase.
type User struct {
	ID          string
	Identifier  string // login identifier (email or username)
	DisplayName string
	SecretHash  string
	Role        Role
	CreatedAt   time.Time
}

// Identity returns the read-only principal view of the user record.
func (u User) Identity() Identity {
	return Identity{UserID: u.ID, DisplayName: u.DisplayName, Role: u.Role}
}

// Session is the server-side record binding a token to an Identity.
// Token is an opaque, unguessable identifier; CSRFToken is the anti-forgery
// token tied to this session and rotated on login.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CSRFToken string    `json:"csrf_token"`
	CreatedAt time.Time `json:"created_at"`
	RotatedAt time.Time `json:"rotated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity returns the principal bound to the session.
func (s Session) Identity() Identity {
	return Identity{UserID: s.UserID, DisplayName: s.Name, Role: s.Role}
}

// Expired reports whether the session has passed its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Verdict is the outcome category of an access check.
type Verdict int

const (
	// VerdictAllow admits the request.
	VerdictAllow Verdict = iota
	// VerdictDenyUnauthenticated rejects a request with no valid session.
	// Remediation is re-authentication (redirect to sign-in).
	VerdictDenyUnauthenticated
	// VerdictDenyForbidden rejects an authenticated request lacking the
	// required capability. Remediation is escalated privileges (403).
	VerdictDenyForbidden
)

// String returns a stable name for logging.
func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictDenyUnauthenticated:
		return "deny_unauthenticated"
	case VerdictDenyForbidden:
		return "deny_forbidden"
	default:
		return "unknown"
	}
}

// Decision is the result of an access check. Callers must branch on Verdict;
// Session is non-nil only when Verdict is VerdictAllow or VerdictDenyForbidden
// (a forbidden caller still holds a valid session).
type Decision struct {
	Verdict Verdict
	Session *Session
}

// Allowed reports whether the decision admits the request.
func (d Decision) Allowed() bool { return d.Verdict == VerdictAllow }

// ErrInvalidCredentials is returned by credential verification for both an
// unknown identifier and a secret mismatch. The two cases are deliberately
// indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnknownCapability is returned when a capability name has no registered
// gate. This signals application misconfiguration, not a caller denial, and
// must abort route binding rather than surface per-request.
var ErrUnknownCapability = errors.New("unknown capability")
