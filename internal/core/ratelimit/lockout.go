package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FailedLoginPrefix is the bucket of the account lockout. It is keyed by
// account, not by client IP.
const FailedLoginPrefix = "failed-login"

const (
	DefaultMaxFailedAttempts = 5
	DefaultLockoutWindow     = 15 * time.Minute
)

// LockoutConfig sets when an account locks and for how long.
type LockoutConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultLockoutConfig locks after 5 failures within 15 minutes.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{MaxAttempts: DefaultMaxFailedAttempts, Window: DefaultLockoutWindow}
}

// LockoutStatus is derived from the failed-login entry of one account.
type LockoutStatus struct {
	Locked     bool
	Attempts   int
	RetryAfter time.Duration // set only when locked
}

// Lockout tracks failed logins per account.
type Lockout struct {
	store Store
	cfg   LockoutConfig
	now   Clock
}

func NewLockout(store Store, cfg LockoutConfig, opts ...Option) *Lockout {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxFailedAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultLockoutWindow
	}
	o := buildOptions(opts)
	return &Lockout{store: store, cfg: cfg, now: o.now}
}

// Config returns the effective configuration.
func (l *Lockout) Config() LockoutConfig { return l.cfg }

// RecordFailure counts one failed login. The first failure opens the window;
// later failures only increment until it expires.
func (l *Lockout) RecordFailure(ctx context.Context, identifier string) (LockoutStatus, error) {
	e, err := l.store.Incr(ctx, l.key(identifier), l.cfg.Window)
	if err != nil {
		return LockoutStatus{}, fmt.Errorf("record failed login: %w", err)
	}
	return l.status(e), nil
}

// Status reports whether the account is locked right now.
func (l *Lockout) Status(ctx context.Context, identifier string) (LockoutStatus, error) {
	e, ok, err := l.store.Get(ctx, l.key(identifier))
	if err != nil {
		return LockoutStatus{}, fmt.Errorf("lockout status: %w", err)
	}
	if !ok {
		return LockoutStatus{}, nil
	}
	return l.status(e), nil
}

// Clear forgets every recorded failure. Clearing an unknown account is a no-op.
func (l *Lockout) Clear(ctx context.Context, identifier string) error {
	if err := l.store.Delete(ctx, l.key(identifier)); err != nil {
		return fmt.Errorf("clear failed logins: %w", err)
	}
	return nil
}

func (l *Lockout) status(e Entry) LockoutStatus {
	st := LockoutStatus{Attempts: e.Count}
	remaining := e.ResetAt.Sub(l.now())
	if e.Count >= l.cfg.MaxAttempts && remaining > 0 {
		st.Locked = true
		st.RetryAfter = remaining
	}
	return st
}

func (l *Lockout) key(identifier string) string {
	return key(FailedLoginPrefix, NormalizeIdentifier(identifier))
}

// NormalizeIdentifier lower-cases and trims an account identifier so that
// "A@Lab.com " and "a@lab.com" share one bucket.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
