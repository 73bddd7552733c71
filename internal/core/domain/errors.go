package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrRateLimited        = errors.New("too many requests")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidResource    = errors.New("invalid resource")
	ErrInvalidAction      = errors.New("invalid action")
)

// ForbiddenError reports an authenticated caller whose role lacks the
// requested (resource, action) pair. Role and action are safe to disclose.
type ForbiddenError struct {
	Role     Role
	Resource Resource
	Action   Action
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %s is not allowed to %s %s", e.Role, e.Action, e.Resource)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// RateLimitError carries the throttling state of a rejected request.
type RateLimitError struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry in %ds", ErrRateLimited, RetryAfterSeconds(e.RetryAfter))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// AccountLockedError is returned by login while the lockout window is open.
// It carries no hint of why the failures were recorded.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("%s, retry in %ds", ErrAccountLocked, RetryAfterSeconds(e.RetryAfter))
}

func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }

// RetryAfterSeconds rounds a wait up to whole seconds, never below zero.
func RetryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
