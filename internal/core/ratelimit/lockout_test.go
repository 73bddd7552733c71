package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLockout(clock *fakeClock) (*Lockout, *MemoryStore) {
	store := NewMemoryStore(WithClock(clock.Now), WithAmortizedSweep(0))
	return NewLockout(store, DefaultLockoutConfig(), WithClock(clock.Now)), store
}

func TestLockout_LocksAfterFiveFailures(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLockout(clock)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		st, err := l.RecordFailure(ctx, "x@lab.com")
		require.NoError(t, err)
		assert.False(t, st.Locked)
		assert.Equal(t, i, st.Attempts)
	}
	st, err := l.RecordFailure(ctx, "x@lab.com")
	require.NoError(t, err)
	assert.True(t, st.Locked)

	clock.Advance(5 * time.Minute)
	st, err = l.Status(ctx, "x@lab.com")
	require.NoError(t, err)
	assert.True(t, st.Locked)
	assert.Equal(t, 10*time.Minute, st.RetryAfter)
}

func TestLockout_ClearUnlocksImmediately(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLockout(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = l.RecordFailure(ctx, "x@lab.com")
	}
	require.NoError(t, l.Clear(ctx, "x@lab.com"))

	st, err := l.Status(ctx, "x@lab.com")
	require.NoError(t, err)
	assert.False(t, st.Locked)
	assert.Zero(t, st.Attempts)
}

func TestLockout_ClearUnknownIsNoop(t *testing.T) {
	l, store := newTestLockout(newFakeClock())
	assert.NoError(t, l.Clear(context.Background(), "nobody@lab.com"))
	assert.Equal(t, 0, store.Len())
}

func TestLockout_SuccessResetsCount(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLockout(clock)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = l.RecordFailure(ctx, "a@lab.com")
	}
	require.NoError(t, l.Clear(ctx, "a@lab.com"))

	st, _ := l.Status(ctx, "a@lab.com")
	assert.False(t, st.Locked)

	st, err := l.RecordFailure(ctx, "a@lab.com")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Attempts)
	assert.False(t, st.Locked)
}

func TestLockout_WindowIsNotExtendedByLaterFailures(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLockout(clock)
	ctx := context.Background()

	_, _ = l.RecordFailure(ctx, "b@lab.com")
	clock.Advance(14 * time.Minute)
	for i := 0; i < 4; i++ {
		_, _ = l.RecordFailure(ctx, "b@lab.com")
	}
	st, _ := l.Status(ctx, "b@lab.com")
	require.True(t, st.Locked)
	assert.Equal(t, time.Minute, st.RetryAfter)

	clock.Advance(time.Minute)
	st, _ = l.Status(ctx, "b@lab.com")
	assert.False(t, st.Locked)

	st, _ = l.RecordFailure(ctx, "b@lab.com")
	assert.Equal(t, 1, st.Attempts)
}

func TestLockout_KeyedByNormalizedAccount(t *testing.T) {
	clock := newFakeClock()
	l, store := newTestLockout(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = l.RecordFailure(ctx, "  C@Lab.COM ")
	}
	st, _ := l.Status(ctx, "c@lab.com")
	assert.True(t, st.Locked)

	_, ok, _ := store.Get(ctx, "failed-login:c@lab.com")
	assert.True(t, ok)
}

func TestNewLockout_Defaults(t *testing.T) {
	l := NewLockout(NewMemoryStore(), LockoutConfig{})
	assert.Equal(t, DefaultLockoutConfig(), l.Config())
}
