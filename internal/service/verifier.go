package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/ports"
)

const maxCredentialLen = 1024

// VerifierOptions groups dependencies for Verifier.
type VerifierOptions struct {
	Users  ports.UserStore
	Hasher ports.PasswordHasher
}

// Verifier checks a presented (identifier, secret) pair against the stored
// credential. It is read-only: no session is created here.
//
// Unknown identifiers and secret mismatches are indistinguishable to callers,
// both in the returned error and in timing: a lookup miss still runs the hash
// comparison against a decoy hash so the two paths cost the same.
type Verifier struct {
	users     ports.UserStore
	hasher    ports.PasswordHasher
	decoyHash string
}

// NewVerifier constructs a Verifier. The decoy hash is derived once from a
// random throwaway secret using the same hasher that guards real records.
func NewVerifier(opts VerifierOptions) (*Verifier, error) {
	if opts.Users == nil {
		return nil, errors.New("user store is required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("password hasher is required")
	}

	decoy, err := opts.Hasher.Hash(randomToken())
	if err != nil {
		return nil, fmt.Errorf("derive decoy hash: %w", err)
	}

	return &Verifier{
		users:     opts.Users,
		hasher:    opts.Hasher,
		decoyHash: decoy,
	}, nil
}

// Verify returns the identity matching the credential pair, or
// auth.ErrInvalidCredentials. Any other error is an infrastructure failure
// from the user store, not an authentication outcome.
func (v *Verifier) Verify(ctx context.Context, identifier, secret string) (domainauth.Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return domainauth.Identity{}, domainauth.ErrInvalidCredentials
	}
	if len(identifier) > maxCredentialLen || len(secret) > maxCredentialLen {
		return domainauth.Identity{}, domainauth.ErrInvalidCredentials
	}

	user, err := v.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			// Burn the same hashing work as the mismatch path.
			_, _ = v.hasher.Verify(secret, v.decoyHash)
			return domainauth.Identity{}, domainauth.ErrInvalidCredentials
		}
		return domainauth.Identity{}, fmt.Errorf("find user: %w", err)
	}

	ok, err := v.hasher.Verify(secret, user.SecretHash)
	if err != nil || !ok {
		return domainauth.Identity{}, domainauth.ErrInvalidCredentials
	}

	return user.Identity(), nil
}
