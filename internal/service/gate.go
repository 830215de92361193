package service

import (
	"fmt"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
)

// Predicate decides whether an identity holds a capability. Predicates must
// be pure: no I/O, no mutation, deterministic for a given identity value.
type Predicate func(domainauth.Identity) bool

// GateRegistry holds named authorization predicates. It is populated once at
// boot and passed by handle to the router and guard; after that it is
// read-only, so Evaluate needs no locking. Define must complete before the
// first request is reachable.
type GateRegistry struct {
	names []string
	gates map[string]Predicate
}

// NewGateRegistry returns an empty registry.
func NewGateRegistry() *GateRegistry {
	return &GateRegistry{gates: make(map[string]Predicate)}
}

// Define registers a predicate under a capability name. Re-defining an
// existing name overwrites it; this mirrors boot-time configuration, not
// runtime mutation.
func (r *GateRegistry) Define(name string, p Predicate) {
	if name == "" || p == nil {
		return
	}
	if _, exists := r.gates[name]; !exists {
		r.names = append(r.names, name)
	}
	r.gates[name] = p
}

// Evaluate runs the predicate registered under name against identity.
// An unregistered name is a configuration fault (auth.ErrUnknownCapability),
// never a denial: callers must validate names at route-bind time via Require.
func (r *GateRegistry) Evaluate(name string, identity domainauth.Identity) (bool, error) {
	p, ok := r.gates[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", domainauth.ErrUnknownCapability, name)
	}
	return p(identity), nil
}

// Require verifies that every named capability has a registered gate.
// Route binding calls this so a dangling capability reference aborts startup
// instead of surfacing per-request.
func (r *GateRegistry) Require(names ...string) error {
	for _, name := range names {
		if _, ok := r.gates[name]; !ok {
			return fmt.Errorf("%w: %q", domainauth.ErrUnknownCapability, name)
		}
	}
	return nil
}

// Names returns the registered capability names in definition order.
func (r *GateRegistry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// RequireRole returns a predicate granting the capability to exactly the
// given role.
func RequireRole(role domainauth.Role) Predicate {
	return func(id domainauth.Identity) bool { return id.Role == role }
}

// AnyAuthenticated grants the capability to every resolved identity.
func AnyAuthenticated() Predicate {
	return func(domainauth.Identity) bool { return true }
}
