package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// LandingRoute returns the client route a session of the given role is sent
// to when it may not view the requested page.
func LandingRoute(role string) string {
	switch role {
	case RoleDoctor:
		return "/doctor/dashboard"
	case RoleParent:
		return "/dashboard"
	default:
		return "/"
	}
}

// RequireRole is the route guard: it only runs the wrapped handler when the
// caller has a resolved profile whose role is in the allowed set. Admin
// passes every gate. Unauthenticated callers get 401 with the login route;
// mis-authorized callers get 403 with their own landing route, so the client
// can redirect instead of rendering the protected page.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := PrincipalFromContext(c.Request().Context())
			if principal == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"message":  "authentication required",
					"redirect": "/login",
				})
			}

			for _, required := range roles {
				if principal.Role == required || principal.Role == RoleAdmin {
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusForbidden, map[string]string{
				"message":  fmt.Sprintf("required role: %s", strings.Join(roles, " or ")),
				"redirect": LandingRoute(principal.Role),
			})
		}
	}
}
