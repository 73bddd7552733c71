package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bactolab/lims/internal/api/handler"
	"github.com/bactolab/lims/internal/api/middleware"
	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/ports"
	"github.com/bactolab/lims/internal/core/ratelimit"
	"github.com/bactolab/lims/internal/core/service"
)

// Deps is everything the HTTP layer needs from the composition root.
type Deps struct {
	AuthService ports.AuthService
	Guard       *service.Guard
	Limiter     *ratelimit.Limiter
	Audit       ports.AuditRecorder
	AuditRepo   ports.AuditRepository
	JWTSecret   string
	Production  bool
	Checks      map[string]handler.Check
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.SecureHeaders(d.Production))

	// --- Dependencies ---
	authz := middleware.NewAuthorizer(d.Guard, d.Audit)
	limits := middleware.NewRateLimiter(d.Limiter, d.Audit, d.Log)

	authHandler := handler.NewAuthHandler(d.AuthService, d.Guard.Matrix())
	authzHandler := handler.NewAuthzHandler(d.Guard.Matrix())
	userHandler := handler.NewUserHandler(d.AuthService)
	auditHandler := handler.NewAuditHandler(d.AuditRepo)
	healthHandler := handler.NewHealthHandler(d.Checks)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1", middleware.Identify(d.JWTSecret))
	apiLimit := limits.Preset(ratelimit.PresetAPI)

	// --- Auth routes ---
	v1.POST("/auth/login", authHandler.Login, limits.Preset(ratelimit.PresetAuth))
	v1.POST("/auth/register",
		authz.Guarded(domain.ResourceUsers, domain.ActionCreate, authHandler.Register),
		limits.Preset(ratelimit.PresetSensitive))
	v1.GET("/auth/me", authHandler.Me, apiLimit, authz.RequireAuth())
	v1.GET("/auth/permissions", authHandler.Permissions, apiLimit, authz.RequireAuth())

	// --- Authorization queries ---
	v1.GET("/authz/check", authzHandler.Check, apiLimit, authz.RequireAuth())

	// --- Users ---
	v1.GET("/users/:id", userHandler.Get, apiLimit, authz.RequireAuth())

	// --- Audit trail ---
	v1.GET("/audit", auditHandler.List,
		limits.Preset(ratelimit.PresetSearch),
		authz.RequirePermission(domain.ResourceAudit, domain.ActionRead))

	return e
}
