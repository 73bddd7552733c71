package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/ports"
	"github.com/bactolab/lims/internal/core/ratelimit"
	"github.com/bactolab/lims/internal/pkg/metrics"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimiter applies limiter presets per client IP.
type RateLimiter struct {
	limiter *ratelimit.Limiter
	audit   ports.AuditRecorder
	log     zerolog.Logger
}

func NewRateLimiter(limiter *ratelimit.Limiter, audit ports.AuditRecorder, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{limiter: limiter, audit: audit, log: log}
}

// Preset counts every request against p. Limit, remaining and reset (unix
// seconds) headers are set on every response; a rejected request returns a
// *domain.RateLimitError and never reaches next. A store failure is returned
// as is, so the request fails closed.
func (rl *RateLimiter) Preset(p ratelimit.Preset) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := ClientIP(c.Request())
			d, err := rl.limiter.Allow(c.Request().Context(), p, ip)
			if err != nil {
				rl.log.Error().Err(err).Str("preset", p.Name).Msg("rate limit check failed")
				return err
			}

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				metrics.RateLimitRejectionsTotal.WithLabelValues(p.Name).Inc()
				if rl.audit != nil {
					rl.audit.Record(domain.AuditEntry{
						Event:    domain.AuditRateLimitExceeded,
						Actor:    ip,
						ClientIP: ip,
						Detail:   p.Name + " " + c.Request().Method + " " + c.Path(),
					})
				}
				return &domain.RateLimitError{
					Limit:      d.Limit,
					Remaining:  d.Remaining,
					ResetAt:    d.ResetAt,
					RetryAfter: d.RetryAfter,
				}
			}
			return next(c)
		}
	}
}
