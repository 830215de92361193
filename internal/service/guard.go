package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
)

// GuardOptions groups dependencies for Guard.
type GuardOptions struct {
	Sessions *SessionManager
	Gates    *GateRegistry
}

// Guard is the request-time access decision function: it composes the
// session check ("is there a valid session?") with the gate check ("does the
// identity hold the capability?"). Authentication failure and authorization
// failure are distinct verdicts with distinct remediation, and callers are
// required to branch on them.
type Guard struct {
	sessions *SessionManager
	gates    *GateRegistry
}

// NewGuard constructs a Guard.
func NewGuard(opts GuardOptions) (*Guard, error) {
	if opts.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if opts.Gates == nil {
		return nil, errors.New("gate registry is required")
	}
	return &Guard{sessions: opts.Sessions, gates: opts.Gates}, nil
}

// Admit decides whether the caller holding token may perform the action
// gated by capability. An empty capability requires authentication only.
//
// The session check always runs first, so an anonymous caller is told to
// re-authenticate rather than that it lacks a capability. Capability names
// are expected to be validated at route-bind time (GateRegistry.Require); an
// unknown name here is returned as an error, not a denial.
func (g *Guard) Admit(ctx context.Context, token, capability string) (domainauth.Decision, error) {
	sess, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return domainauth.Decision{}, fmt.Errorf("resolve session: %w", err)
	}
	if sess == nil {
		return domainauth.Decision{Verdict: domainauth.VerdictDenyUnauthenticated}, nil
	}

	if capability != "" {
		granted, evalErr := g.gates.Evaluate(capability, sess.Identity())
		if evalErr != nil {
			return domainauth.Decision{}, evalErr
		}
		if !granted {
			return domainauth.Decision{Verdict: domainauth.VerdictDenyForbidden, Session: sess}, nil
		}
	}

	return domainauth.Decision{Verdict: domainauth.VerdictAllow, Session: sess}, nil
}

// Can reports whether the identity bound to token holds the capability.
// It is a read-only convenience for view rendering and must never replace a
// route-level Admit call.
func (g *Guard) Can(ctx context.Context, token, capability string) bool {
	decision, err := g.Admit(ctx, token, capability)
	if err != nil {
		return false
	}
	return decision.Allowed()
}
