package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/bactolab/lims/internal/core/domain"
)

// IdentityKey is the echo context key holding the resolved domain.Identity.
const IdentityKey = "identity"

// Identify resolves the bearer token, when present and valid, into a
// domain.Identity on both the echo context and the request context. It never
// rejects: routes that need a caller enforce it through the Authorizer, so a
// missing and a bad token surface the same 401.
func Identify(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := parseBearer(c.Request().Header.Get(echo.HeaderAuthorization), jwtSecret)
			if ok {
				c.Set(IdentityKey, id)
				req := c.Request()
				c.SetRequest(req.WithContext(domain.ContextWithIdentity(req.Context(), id)))
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity set by Identify.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(IdentityKey).(domain.Identity)
	if !ok || id.UserID == "" {
		return domain.Identity{}, false
	}
	return id, true
}

func parseBearer(header, jwtSecret string) (domain.Identity, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return domain.Identity{}, false
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return domain.Identity{}, false
	}

	sub, _ := claims.GetSubject()
	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)
	parsed, err := domain.ParseRole(role)
	if sub == "" || err != nil {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: sub, Role: parsed, Name: name}, true
}
