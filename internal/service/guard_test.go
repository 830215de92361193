package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/loftsec/wicket/internal/adapters/memory"
	domainauth "github.com/loftsec/wicket/internal/domain/auth"
)

func newTestGuard(t *testing.T) (*Guard, *SessionManager) {
	t.Helper()

	mgr, err := NewSessionManager(SessionManagerOptions{Store: memory.NewSessionStore(), TTL: time.Hour})
	require.NoError(t, err)

	gates := NewGateRegistry()
	gates.Define("articles.view", AnyAuthenticated())
	gates.Define("articles.edit", RequireRole(domainauth.RolePrivileged))

	guard, err := NewGuard(GuardOptions{Sessions: mgr, Gates: gates})
	require.NoError(t, err)
	return guard, mgr
}

func TestGuard_AnonymousIsDeniedUnauthenticated(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	// Without a token, and regardless of the capability, the verdict is
	// unauthenticated, never forbidden.
	for _, capability := range []string{"", "articles.view", "articles.edit"} {
		decision, err := guard.Admit(ctx, "", capability)
		require.NoError(t, err)
		assert.Equal(t, domainauth.VerdictDenyUnauthenticated, decision.Verdict)
		assert.Nil(t, decision.Session)
	}

	decision, err := guard.Admit(ctx, "stale-token", "articles.edit")
	require.NoError(t, err)
	assert.Equal(t, domainauth.VerdictDenyUnauthenticated, decision.Verdict)
}

func TestGuard_AuthenticatedWithoutCapability(t *testing.T) {
	guard, mgr := newTestGuard(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, domainauth.Identity{UserID: "u1", Role: domainauth.RoleStandard})
	require.NoError(t, err)

	decision, err := guard.Admit(ctx, sess.Token, "")
	require.NoError(t, err)
	assert.True(t, decision.Allowed())
	require.NotNil(t, decision.Session)
	assert.Equal(t, "u1", decision.Session.UserID)
}

func TestGuard_StandardRoleIsForbiddenFromEdit(t *testing.T) {
	guard, mgr := newTestGuard(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, domainauth.Identity{UserID: "u1", Role: domainauth.RoleStandard})
	require.NoError(t, err)

	decision, err := guard.Admit(ctx, sess.Token, "articles.edit")
	require.NoError(t, err)
	assert.Equal(t, domainauth.VerdictDenyForbidden, decision.Verdict)
	// A forbidden caller still holds a valid session.
	require.NotNil(t, decision.Session)
	assert.Equal(t, "u1", decision.Session.UserID)
}

func TestGuard_PrivilegedRoleMayEdit(t *testing.T) {
	guard, mgr := newTestGuard(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, domainauth.Identity{UserID: "u2", Role: domainauth.RolePrivileged})
	require.NoError(t, err)

	decision, err := guard.Admit(ctx, sess.Token, "articles.edit")
	require.NoError(t, err)
	assert.True(t, decision.Allowed())
}

func TestGuard_UnknownCapabilityIsAnError(t *testing.T) {
	guard, mgr := newTestGuard(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, domainauth.Identity{UserID: "u1", Role: domainauth.RolePrivileged})
	require.NoError(t, err)

	_, err = guard.Admit(ctx, sess.Token, "articles.purge")
	assert.ErrorIs(t, err, domainauth.ErrUnknownCapability)
}

func TestGuard_DestroyedSessionIsUnauthenticated(t *testing.T) {
	guard, mgr := newTestGuard(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, domainauth.Identity{UserID: "u1", Role: domainauth.RolePrivileged})
	require.NoError(t, err)
	require.NoError(t, mgr.Destroy(ctx, sess.Token))

	decision, err := guard.Admit(ctx, sess.Token, "articles.edit")
	require.NoError(t, err)
	assert.Equal(t, domainauth.VerdictDenyUnauthenticated, decision.Verdict)
}

func TestGuard_Can(t *testing.T) {
	guard, mgr := newTestGuard(t)
	ctx := context.Background()

	standard, err := mgr.Create(ctx, domainauth.Identity{UserID: "u1", Role: domainauth.RoleStandard})
	require.NoError(t, err)
	privileged, err := mgr.Create(ctx, domainauth.Identity{UserID: "u2", Role: domainauth.RolePrivileged})
	require.NoError(t, err)

	assert.False(t, guard.Can(ctx, standard.Token, "articles.edit"))
	assert.True(t, guard.Can(ctx, privileged.Token, "articles.edit"))
	assert.False(t, guard.Can(ctx, "", "articles.view"))
}

func TestNewGuard_RequiresDependencies(t *testing.T) {
	mgr, err := NewSessionManager(SessionManagerOptions{Store: memory.NewSessionStore()})
	require.NoError(t, err)

	_, err = NewGuard(GuardOptions{Gates: NewGateRegistry()})
	assert.Error(t, err)

	_, err = NewGuard(GuardOptions{Sessions: mgr})
	assert.Error(t, err)
}
