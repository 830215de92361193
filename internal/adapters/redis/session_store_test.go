package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/ports"
)

func setupTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client), mr
}

func testSession(token string) domainauth.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return domainauth.Session{
		Token:     token,
		UserID:    "user-123",
		Name:      "Ada",
		Role:      domainauth.RoleStandard,
		CSRFToken: "csrf-abc",
		CreatedAt: now,
		RotatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	sess := testSession("tok-1")
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, sess.Token, got.Token)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.Role, got.Role)
	assert.Equal(t, sess.CSRFToken, got.CSRFToken)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Get(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_GetEmptyToken(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_SaveRejectsInvalid(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	sess := testSession("")
	assert.Error(t, store.Save(ctx, sess))

	expired := testSession("tok-expired")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	assert.Error(t, store.Save(ctx, expired))
}

func TestSessionStore_SaveReplacesExisting(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	sess := testSession("tok-1")
	require.NoError(t, store.Save(ctx, sess))

	sess.CSRFToken = "csrf-rotated"
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "csrf-rotated", got.CSRFToken)
}

func TestSessionStore_Delete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("tok-1")))
	require.NoError(t, store.Delete(ctx, "tok-1"))

	_, err := store.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	// Idempotent: deleting again, or deleting nothing, is a no-op.
	require.NoError(t, store.Delete(ctx, "tok-1"))
	require.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_RedisExpiresRecords(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("tok-1")))

	mr.FastForward(31 * time.Minute)

	_, err := store.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_CustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewSessionStoreWithPrefix(client, "wicket:sess:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("tok-1")))
	assert.True(t, mr.Exists("wicket:sess:tok-1"))
}
