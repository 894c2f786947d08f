package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/tenancy"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantHeader lets developer tokens pick the tenant to act on
const TenantHeader = "X-Tenant-ID"

// TenantResolver finds the tenant database of a request
type TenantResolver interface {
	ByTenantID(ctx context.Context, tenantID string) (*tenancy.Resolution, error)
	ByUserEmail(ctx context.Context, email string) (*tenancy.Resolution, error)
}

// TenantContext resolves the caller's tenant and stores it together with its
// database handle in the context. The tenant comes from the token's
// tenant_id claim, otherwise from the login email. Developer tokens may name
// any tenant through X-Tenant-ID.
func TenantContext(resolver TenantResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)
			claims := Claims(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}

			ctx := c.Request().Context()
			var (
				res *tenancy.Resolution
				err error
			)
			switch header := c.Request().Header.Get(TenantHeader); {
			case header != "" && claims.IsDeveloper():
				res, err = resolver.ByTenantID(ctx, header)
			case claims.TenantID != "":
				res, err = resolver.ByTenantID(ctx, claims.TenantID)
			default:
				res, err = resolver.ByUserEmail(ctx, claims.Email)
			}
			if err != nil {
				log.Warn("Tenant resolution failed", zap.Error(err))
				return TenantError(err)
			}

			c.Set(TenantKey, res.Tenant)
			c.Set(TenantDBKey, res.DB)
			logger.SetContext(c, log.With(zap.String("tenant_id", res.Tenant.ID)))
			return next(c)
		}
	}
}

// TenantError maps resolver errors to HTTP errors
func TenantError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, tenancy.ErrTenantNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Tenant not found")
	case errors.Is(err, tenancy.ErrTenantInactive):
		return echo.NewHTTPError(http.StatusForbidden, "Tenant is not active")
	case errors.Is(err, tenancy.ErrNoConnectionString):
		return echo.NewHTTPError(http.StatusInternalServerError, "Tenant database is not configured")
	case errors.Is(err, tenancy.ErrClosed):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// Tenant returns the resolved tenant of the request
func Tenant(c echo.Context) *model.Tenant {
	t, _ := c.Get(TenantKey).(*model.Tenant)
	return t
}

// TenantDB returns the resolved tenant database of the request
func TenantDB(c echo.Context) *gorm.DB {
	db, _ := c.Get(TenantDBKey).(*gorm.DB)
	return db
}
