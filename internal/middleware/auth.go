package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/jwtutil"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"go.uber.org/zap"
)

// Context keys set by the middlewares
const (
	ClaimsKey   = "claims"
	UserIDKey   = "user_id"
	EmailKey    = "email"
	TenantKey   = "tenant"
	TenantDBKey = "tenant_db"
)

// TokenValidator parses bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*jwtutil.UserClaims, error)
}

// AuthMiddleware validates the JWT from the Authorization header and stores
// its claims in the context.
func AuthMiddleware(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format, expected Bearer token")
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.UserID())
			c.Set(EmailKey, strings.ToLower(claims.Email))

			logger.SetContext(c, log.With(zap.String("user_id", claims.UserID())))
			return next(c)
		}
	}
}

// RequireRole rejects tokens without the given role
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Claims(c)
			if claims == nil || claims.Role != role {
				logger.FromContext(c).Warn("Role required", zap.String("role", role))
				prometheus.RecordAuthError("forbidden")
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// Claims returns the token claims of the request, or nil before AuthMiddleware
func Claims(c echo.Context) *jwtutil.UserClaims {
	claims, _ := c.Get(ClaimsKey).(*jwtutil.UserClaims)
	return claims
}
