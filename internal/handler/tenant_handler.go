package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/internal/features"
	"github.com/supritimishra/FuelOne-1-sub007/internal/middleware"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"go.uber.org/zap"
)

// CurrentTenant handles retrieving the tenant of the caller
func CurrentTenant(c echo.Context) error {
	tenant := middleware.Tenant(c)
	if tenant == nil {
		return failure(c, http.StatusNotFound, "Tenant not found")
	}
	return success(c, http.StatusOK, tenant)
}

// MyFeatures handles retrieving the effective feature flags of the caller
func MyFeatures(c echo.Context) error {
	claims := middleware.Claims(c)
	res := features.ForUser(c.Request().Context(), middleware.TenantDB(c), claims.UserID())
	if res.Fallback {
		logger.FromContext(c).Warn("Serving built-in feature defaults",
			zap.String("user_id", claims.UserID()),
			zap.String("error", res.Error))
	}
	return success(c, http.StatusOK, res)
}
