package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client), mr
}

func TestRevokeAndCheck(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationExpires(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-2", time.Now().Add(time.Minute)))
	mr.FastForward(2 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	store, mr := newTestSessionStore(t)

	require.NoError(t, store.Revoke(context.Background(), "jti-3", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(revocationKey("jti-3")))
}

func TestNilStoreIsSafe(t *testing.T) {
	var store *SessionStore
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti", time.Now().Add(time.Hour)))
	revoked, err := store.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}
