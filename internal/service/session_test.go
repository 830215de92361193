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

func newTestSessionManager(t *testing.T) (*SessionManager, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	mgr, err := NewSessionManager(SessionManagerOptions{Store: store, TTL: time.Hour})
	require.NoError(t, err)
	return mgr, store
}

func testIdentity() domainauth.Identity {
	return domainauth.Identity{UserID: "user-1", DisplayName: "Ada", Role: domainauth.RolePrivileged}
}

func TestSessionManager_CreateThenResolve(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, testIdentity())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.NotEmpty(t, sess.CSRFToken)
	assert.NotEqual(t, sess.Token, sess.CSRFToken)

	resolved, err := mgr.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, "user-1", resolved.UserID)
	assert.Equal(t, domainauth.RolePrivileged, resolved.Role)
}

func TestSessionManager_CreateGeneratesFreshTokens(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	first, err := mgr.Create(ctx, testIdentity())
	require.NoError(t, err)
	second, err := mgr.Create(ctx, testIdentity())
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.NotEqual(t, first.CSRFToken, second.CSRFToken)
}

func TestSessionManager_ResolveAbsent(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"unknown token", "no-such-token"},
		{"malformed token", "!!! definitely not base64url !!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := mgr.Resolve(ctx, tt.token)
			require.NoError(t, err)
			assert.Nil(t, resolved)
		})
	}
}

func TestSessionManager_DestroyThenResolve(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, testIdentity())
	require.NoError(t, err)

	require.NoError(t, mgr.Destroy(ctx, sess.Token))

	resolved, err := mgr.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestSessionManager_DestroyIsIdempotent(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, testIdentity())
	require.NoError(t, err)

	require.NoError(t, mgr.Destroy(ctx, sess.Token))
	require.NoError(t, mgr.Destroy(ctx, sess.Token))
	require.NoError(t, mgr.Destroy(ctx, "never-existed"))
	require.NoError(t, mgr.Destroy(ctx, ""))
}

func TestSessionManager_ResolveExpired(t *testing.T) {
	store := memory.NewSessionStore()
	current := time.Now()
	mgr, err := NewSessionManager(SessionManagerOptions{
		Store: store,
		TTL:   time.Hour,
		Now:   func() time.Time { return current },
	})
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, testIdentity())
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)

	resolved, err := mgr.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, resolved)
	// Lazy cleanup removed the record.
	assert.Zero(t, store.Len())
}

func TestSessionManager_RotateAntiForgery(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, testIdentity())
	require.NoError(t, err)

	rotated, err := mgr.RotateAntiForgery(ctx, sess.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated)
	assert.NotEqual(t, sess.CSRFToken, rotated)

	// The stored record carries only the fresh token.
	resolved, err := mgr.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, rotated, resolved.CSRFToken)
}

func TestSessionManager_RotateAntiForgeryOnDestroyedSession(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, testIdentity())
	require.NoError(t, err)
	require.NoError(t, mgr.Destroy(ctx, sess.Token))

	rotated, err := mgr.RotateAntiForgery(ctx, sess.Token)
	require.NoError(t, err)
	assert.Empty(t, rotated)
}

func TestSessionManager_CreateRequiresIdentity(t *testing.T) {
	mgr, _ := newTestSessionManager(t)

	_, err := mgr.Create(context.Background(), domainauth.Identity{})
	assert.Error(t, err)
}

func TestSessionManager_ConcurrentResolveAndDestroy(t *testing.T) {
	mgr, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, testIdentity())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = mgr.Destroy(ctx, sess.Token)
	}()

	// Either outcome is fine; the operation must not error or race.
	_, err = mgr.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	<-done

	resolved, err := mgr.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}
