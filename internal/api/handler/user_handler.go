package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/permission"
	"github.com/bactolab/lims/internal/core/ports"
)

type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// Get returns a user profile. Admins may read any profile, everyone else
// only their own.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	target := c.Param("id")
	if !permission.CanAccessUserData(id.Role, id.UserID, target) {
		return &domain.ForbiddenError{Role: id.Role, Resource: domain.ResourceUsers, Action: domain.ActionRead}
	}

	user, err := h.authService.GetUser(c.Request().Context(), target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
