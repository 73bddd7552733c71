package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/permission"
)

// AuthzHandler answers "may I?" questions against the permission matrix so
// clients can hide actions the caller cannot perform.
type AuthzHandler struct {
	matrix *permission.Matrix
}

func NewAuthzHandler(matrix *permission.Matrix) *AuthzHandler {
	if matrix == nil {
		matrix = permission.Default()
	}
	return &AuthzHandler{matrix: matrix}
}

type checkRequest struct {
	Resource string `query:"resource" validate:"required,lims_resource"`
	Action   string `query:"action"   validate:"required,lims_action"`
}

type checkResponse struct {
	Role     domain.Role     `json:"role"`
	Resource domain.Resource `json:"resource"`
	Action   domain.Action   `json:"action"`
	Allowed  bool            `json:"allowed"`
}

// Check evaluates one matrix cell for the caller's role.
//
// @Summary      Check a permission
// @Tags         authz
// @Produce      json
// @Security     BearerAuth
// @Param        resource  query     string  true  "Resource (e.g. results)"
// @Param        action    query     string  true  "Action (e.g. validate)"
// @Success      200       {object}  checkResponse
// @Failure      401       {object}  map[string]string
// @Failure      422       {object}  map[string]string
// @Router       /v1/authz/check [get]
func (h *AuthzHandler) Check(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	// Validated above; parsing only normalises case.
	resource, _ := domain.ParseResource(req.Resource)
	action, _ := domain.ParseAction(req.Action)

	return c.JSON(http.StatusOK, checkResponse{
		Role:     id.Role,
		Resource: resource,
		Action:   action,
		Allowed:  h.matrix.HasPermission(id.Role, resource, action),
	})
}
