package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Preset is a named (interval, max requests) policy. Its name is the key
// prefix, so presets never share counters.
type Preset struct {
	Name        string
	Interval    time.Duration
	MaxRequests int
}

var (
	PresetAuth      = Preset{Name: "auth", Interval: 60 * time.Second, MaxRequests: 5}
	PresetAPI       = Preset{Name: "api", Interval: 60 * time.Second, MaxRequests: 100}
	PresetSensitive = Preset{Name: "sensitive", Interval: 60 * time.Second, MaxRequests: 10}
	PresetSearch    = Preset{Name: "search", Interval: 60 * time.Second, MaxRequests: 30}
)

// Presets lists the built-in presets.
func Presets() []Preset {
	return []Preset{PresetAuth, PresetAPI, PresetSensitive, PresetSearch}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // zero when allowed
}

// Limiter applies presets to identifiers over a Store.
type Limiter struct {
	store Store
	now   Clock
}

func NewLimiter(store Store, opts ...Option) *Limiter {
	o := buildOptions(opts)
	return &Limiter{store: store, now: o.now}
}

// Allow counts one request by identifier against p.
func (l *Limiter) Allow(ctx context.Context, p Preset, identifier string) (Decision, error) {
	if p.MaxRequests <= 0 || p.Interval <= 0 {
		return Decision{}, fmt.Errorf("rate limit preset %q: invalid interval or max", p.Name)
	}

	e, ok, err := l.store.Hit(ctx, key(p.Name, identifier), p.Interval, p.MaxRequests)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", p.Name, err)
	}

	d := Decision{
		Allowed:   ok,
		Limit:     p.MaxRequests,
		Remaining: max(p.MaxRequests-e.Count, 0),
		ResetAt:   e.ResetAt,
	}
	if !ok {
		d.RetryAfter = max(e.ResetAt.Sub(l.now()), 0)
	}
	return d, nil
}
