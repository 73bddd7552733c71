package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/ports"
	"github.com/bactolab/lims/internal/core/service"
	"github.com/bactolab/lims/internal/pkg/metrics"
)

// Authorizer turns Guard decisions into echo middleware. Denials are counted
// and written to the audit trail.
type Authorizer struct {
	guard *service.Guard
	audit ports.AuditRecorder
}

func NewAuthorizer(guard *service.Guard, audit ports.AuditRecorder) *Authorizer {
	return &Authorizer{guard: guard, audit: audit}
}

// RequireAuth rejects requests without a resolvable identity.
func (a *Authorizer) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := a.guard.Authenticate(c.Request().Context())
			if err != nil {
				return err
			}
			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

// RequirePermission lets the request through only when the caller's role
// holds (resource, action). The wrapped handler never runs otherwise.
func (a *Authorizer) RequirePermission(resource domain.Resource, action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := a.check(c, resource, action)
			if err != nil {
				return err
			}
			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

// Guarded wraps fn so it receives the authorised identity directly.
func (a *Authorizer) Guarded(resource domain.Resource, action domain.Action, fn func(echo.Context, domain.Identity) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := a.check(c, resource, action)
		if err != nil {
			return err
		}
		c.Set(IdentityKey, id)
		return fn(c, id)
	}
}

func (a *Authorizer) check(c echo.Context, resource domain.Resource, action domain.Action) (domain.Identity, error) {
	id, err := a.guard.CheckPermission(c.Request().Context(), resource, action)
	switch {
	case err == nil:
		metrics.AuthzDecisionsTotal.WithLabelValues(string(resource), string(action), "allowed").Inc()
	case errors.Is(err, domain.ErrForbidden):
		metrics.AuthzDecisionsTotal.WithLabelValues(string(resource), string(action), "forbidden").Inc()
		if a.audit != nil {
			a.audit.Record(domain.AuditEntry{
				Event:    domain.AuditAuthzDenied,
				Actor:    id.UserID,
				Role:     id.Role,
				Resource: resource,
				Action:   action,
				ClientIP: ClientIP(c.Request()),
				Detail:   c.Request().Method + " " + c.Path(),
			})
		}
	default:
		metrics.AuthzDecisionsTotal.WithLabelValues(string(resource), string(action), "unauthenticated").Inc()
	}
	return id, err
}
