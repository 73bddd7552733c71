package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bactolab/lims/internal/api/middleware"
	"github.com/bactolab/lims/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain
// errors to status codes, logs anything unexpected without leaking it, and
// renders {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	h := c.Response().Header()

	var rateLimited *domain.RateLimitError
	if errors.As(err, &rateLimited) {
		h.Set(echo.HeaderRetryAfter, strconv.Itoa(domain.RetryAfterSeconds(rateLimited.RetryAfter)))
		h.Set(middleware.HeaderRateLimitLimit, strconv.Itoa(rateLimited.Limit))
		h.Set(middleware.HeaderRateLimitRemaining, strconv.Itoa(rateLimited.Remaining))
		h.Set(middleware.HeaderRateLimitReset, strconv.FormatInt(rateLimited.ResetAt.Unix(), 10))
		return http.StatusTooManyRequests, "too many requests, please try again later"
	}

	var locked *domain.AccountLockedError
	if errors.As(err, &locked) {
		h.Set(echo.HeaderRetryAfter, strconv.Itoa(domain.RetryAfterSeconds(locked.RetryAfter)))
		return http.StatusTooManyRequests, "account temporarily locked, please try again later"
	}

	// ForbiddenError names the role and the denied pair; a bare
	// ErrForbidden gets the generic message.
	var forbidden *domain.ForbiddenError
	if errors.As(err, &forbidden) {
		return http.StatusForbidden, forbidden.Error()
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidResource),
		errors.Is(err, domain.ErrInvalidAction):
		return http.StatusBadRequest, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
