package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
	PrincipalKey contextKey = "principal"
)

// Principal is the resolved profile of the authenticated user, carried on
// the request context so handlers never re-fetch it.
type Principal struct {
	ID        string
	Role      string
	Email     string
	FirstName string
	LastName  string
}

// ProfileLoader resolves the profile row behind an authenticated identity.
// It is an interface so the identity domain can back it in production and
// tests can substitute a fixed map.
type ProfileLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (*Principal, error)
}

// Middleware validates the bearer token and resolves the caller's profile.
// Requests without a token pass through unauthenticated; the route guard
// decides whether that is acceptable for the route. A profile-fetch failure
// is logged and treated as "no profile" so the caller is handled as
// unauthenticated rather than served an opaque 500.
func Middleware(issuer *TokenIssuer, loader ProfileLoader, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.Parse(parts[1], TokenAccess)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)

			principal, err := loader.LoadPrincipal(ctx, claims.Subject)
			if err != nil {
				logger.Error().Err(err).Str("user_id", claims.Subject).Msg("profile fetch failed")
			} else if principal != nil {
				ctx = context.WithValue(ctx, PrincipalKey, principal)
			}

			c.Set("user_id", claims.Subject)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(PrincipalKey).(*Principal)
	return p
}
