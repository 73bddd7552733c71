package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/bactolab/lims/internal/api/middleware"
	"github.com/bactolab/lims/internal/core/domain"
)

// ctxIdentity returns the caller placed on the context by the Authorizer.
// Handlers mounted behind RequireAuth or RequirePermission always have one;
// anything else is reported as unauthenticated, never as an anonymous caller.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || !id.Role.Valid() {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}
