// Package ratelimit throttles requests per identifier inside fixed windows and
// locks accounts out after repeated failed logins.
//
// Both mechanisms share one Store keyed "prefix:identifier". A key is Absent
// until its first request, Active(count, resetAt) while the window is open,
// and treated as Absent again once resetAt has passed.
package ratelimit

import (
	"context"
	"time"
)

// Entry is the throttling state of one key.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Store holds entries. Implementations must make Hit and Incr atomic per key.
type Store interface {
	// Hit starts a window of length window when the key is absent or expired.
	// Otherwise it increments the count if it is below max and reports false,
	// without incrementing, once max is reached.
	Hit(ctx context.Context, key string, window time.Duration, max int) (Entry, bool, error)
	// Incr increments unconditionally, starting a new window only when the
	// previous one has expired.
	Incr(ctx context.Context, key string, window time.Duration) (Entry, error)
	// Get returns the live entry for key; expired entries are reported absent.
	Get(ctx context.Context, key string) (Entry, bool, error)
	Delete(ctx context.Context, key string) error
	// Sweep drops expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// Clock returns the current time.
type Clock func() time.Time

type options struct {
	now        Clock
	sweepEvery int
}

// Option customises stores, limiters and lockouts.
type Option func(*options)

// WithClock replaces time.Now. Tests use it to move through windows.
func WithClock(now Clock) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithAmortizedSweep makes MemoryStore sweep itself every n writes. Zero
// disables it.
func WithAmortizedSweep(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.sweepEvery = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, sweepEvery: defaultSweepEvery}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func key(prefix, identifier string) string {
	return prefix + ":" + identifier
}
