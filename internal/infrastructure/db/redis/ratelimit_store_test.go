package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bactolab/lims/internal/core/ratelimit"
)

func newTestStore(t *testing.T) (*RateLimitStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateLimitStore(client), mr
}

func TestRateLimitStore_HitEnforcesMax(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		e, ok, err := store.Hit(ctx, "auth:ip-1", time.Minute, 3)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, i, e.Count)
	}

	e, ok, err := store.Hit(ctx, "auth:ip-1", time.Minute, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, e.Count)
	assert.WithinDuration(t, time.Now().Add(time.Minute), e.ResetAt, 2*time.Second)
}

func TestRateLimitStore_WindowExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, _ = store.Hit(ctx, "k", time.Minute, 2)
	}
	mr.FastForward(time.Minute + time.Second)

	e, ok, err := store.Hit(ctx, "k", time.Minute, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, e.Count)
}

func TestRateLimitStore_IncrDoesNotExtendWindow(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, err := store.Incr(ctx, "failed-login:a@lab.com", 15*time.Minute)
	require.NoError(t, err)
	mr.FastForward(10 * time.Minute)

	e, err := store.Incr(ctx, "failed-login:a@lab.com", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Count)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), e.ResetAt, 2*time.Second)
}

func TestRateLimitStore_GetAndDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _ = store.Incr(ctx, "x", time.Minute)
	e, ok, err := store.Get(ctx, "x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, e.Count)
	assert.True(t, mr.Exists(keyNamespace+"x"))

	require.NoError(t, store.Delete(ctx, "x"))
	require.NoError(t, store.Delete(ctx, "x"))
	_, ok, _ = store.Get(ctx, "x")
	assert.False(t, ok)
}

func TestRateLimitStore_BacksLockout(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	lockout := ratelimit.NewLockout(store, ratelimit.DefaultLockoutConfig())

	for i := 0; i < 5; i++ {
		_, err := lockout.RecordFailure(ctx, "lab@lab.com")
		require.NoError(t, err)
	}
	st, err := lockout.Status(ctx, "lab@lab.com")
	require.NoError(t, err)
	assert.True(t, st.Locked)
	assert.LessOrEqual(t, st.RetryAfter, 15*time.Minute)

	require.NoError(t, lockout.Clear(ctx, "lab@lab.com"))
	st, _ = lockout.Status(ctx, "lab@lab.com")
	assert.False(t, st.Locked)
}

func TestRateLimitStore_ConnectionError(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, _, err := store.Hit(context.Background(), "k", time.Minute, 1)
	assert.Error(t, err)
}

func TestConnectAndPing(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, Ping(context.Background(), client))

	mr.Close()
	assert.Error(t, Ping(context.Background(), client))
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), Config{Addr: addr})
	assert.Error(t, err)
}
