package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bactolab/lims/internal/api/middleware"
	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/permission"
	"github.com/bactolab/lims/internal/core/ports"
	"github.com/bactolab/lims/internal/pkg/metrics"
)

type AuthHandler struct {
	authService ports.AuthService
	matrix      *permission.Matrix
}

func NewAuthHandler(authService ports.AuthService, matrix *permission.Matrix) *AuthHandler {
	if matrix == nil {
		matrix = permission.Default()
	}
	return &AuthHandler{authService: authService, matrix: matrix}
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"required,lims_role"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

type permissionsResponse struct {
	Role        domain.Role                         `json:"role"`
	Permissions map[domain.Resource][]domain.Action `json:"permissions"`
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, user, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: middleware.ClientIP(c.Request()),
	})
	metrics.AuthAttemptsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountLocked):
		return "locked"
	default:
		return "error"
	}
}

// Register creates a new user account. Mounted behind users:create.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context, actor domain.Identity) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
		ClientIP: middleware.ClientIP(c.Request()),
		Actor:    actor,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Me returns the account behind the current session.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.authService.GetUser(c.Request().Context(), id.UserID)
	if err != nil {
		// A valid token for a deleted account is not a session.
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnauthenticated
		}
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: user})
}

// Permissions lists what the caller's role may do.
//
// @Summary      Permissions of the current role
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  permissionsResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/auth/permissions [get]
func (h *AuthHandler) Permissions(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, permissionsResponse{
		Role:        id.Role,
		Permissions: h.matrix.RolePermissions(id.Role),
	})
}
