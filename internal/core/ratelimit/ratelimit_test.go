package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(clock *fakeClock) (*Limiter, *MemoryStore) {
	store := NewMemoryStore(WithClock(clock.Now), WithAmortizedSweep(0))
	return NewLimiter(store, WithClock(clock.Now)), store
}

func TestPresets(t *testing.T) {
	want := map[string]Preset{
		"auth":      {Name: "auth", Interval: time.Minute, MaxRequests: 5},
		"api":       {Name: "api", Interval: time.Minute, MaxRequests: 100},
		"sensitive": {Name: "sensitive", Interval: time.Minute, MaxRequests: 10},
		"search":    {Name: "search", Interval: time.Minute, MaxRequests: 30},
	}
	got := Presets()
	require.Len(t, got, len(want))
	for _, p := range got {
		assert.Equal(t, want[p.Name], p)
	}
}

func TestLimiter_AuthPresetRejectsSixthRequest(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLimiter(clock)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := l.Allow(ctx, PresetAuth, "ip-1")
		require.NoError(t, err)
		require.Truef(t, d.Allowed, "request %d should pass", i)
		assert.Equal(t, 5-i, d.Remaining)
		assert.Equal(t, 5, d.Limit)
	}

	clock.Advance(10 * time.Second)
	d, err := l.Allow(ctx, PresetAuth, "ip-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.LessOrEqual(t, d.RetryAfter, 60*time.Second)
	assert.Equal(t, 50*time.Second, d.RetryAfter)
}

func TestLimiter_RejectionDoesNotIncrement(t *testing.T) {
	clock := newFakeClock()
	l, store := newTestLimiter(clock)
	ctx := context.Background()
	p := Preset{Name: "tiny", Interval: time.Minute, MaxRequests: 2}

	for i := 0; i < 5; i++ {
		_, err := l.Allow(ctx, p, "x")
		require.NoError(t, err)
	}
	e, ok, err := store.Get(ctx, "tiny:x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, e.Count)
}

func TestLimiter_WindowExpiryResetsCounter(t *testing.T) {
	clock := newFakeClock()
	l, store := newTestLimiter(clock)
	ctx := context.Background()
	p := Preset{Name: "n", Interval: time.Minute, MaxRequests: 3}

	for i := 0; i < 4; i++ {
		_, _ = l.Allow(ctx, p, "id")
	}

	clock.Advance(time.Minute)
	d, err := l.Allow(ctx, p, "id")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)

	e, _, _ := store.Get(ctx, "n:id")
	assert.Equal(t, 1, e.Count)
	assert.Equal(t, clock.Now().Add(time.Minute), e.ResetAt)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l, _ := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = l.Allow(ctx, PresetAuth, "ip-1")
	}
	d, _ := l.Allow(ctx, PresetAuth, "ip-2")
	assert.True(t, d.Allowed)

	d, _ = l.Allow(ctx, PresetSensitive, "ip-1")
	assert.True(t, d.Allowed)
}

func TestLimiter_InvalidPreset(t *testing.T) {
	l, _ := newTestLimiter(newFakeClock())
	_, err := l.Allow(context.Background(), Preset{Name: "bad"}, "x")
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentHitsNeverExceedMax(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := store.Hit(ctx, "api:shared", time.Minute, 10); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(10), allowed.Load())
}

func TestMemoryStore_SweepRemovesExpired(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now), WithAmortizedSweep(0))
	ctx := context.Background()

	_, _, _ = store.Hit(ctx, "a", time.Minute, 5)
	_, _, _ = store.Hit(ctx, "b", 10*time.Minute, 5)
	clock.Advance(2 * time.Minute)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_AmortizedSweep(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now), WithAmortizedSweep(3))
	ctx := context.Background()

	_, _, _ = store.Hit(ctx, "old-1", time.Second, 5)
	_, _, _ = store.Hit(ctx, "old-2", time.Second, 5)
	clock.Advance(time.Minute)
	_, _, _ = store.Hit(ctx, "fresh", time.Minute, 5)

	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_GetHidesExpired(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))
	ctx := context.Background()

	_, _ = store.Incr(ctx, "k", time.Minute)
	clock.Advance(time.Minute)
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSweeper_SweepOnce(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now), WithAmortizedSweep(0))
	ctx := context.Background()
	_, _, _ = store.Hit(ctx, "a", time.Minute, 1)
	clock.Advance(time.Hour)

	NewSweeper(store, 0, zerolog.Nop()).SweepOnce(ctx)
	assert.Equal(t, 0, store.Len())
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewSweeper(NewMemoryStore(), time.Millisecond, zerolog.Nop()).Run(ctx)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
