package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/database"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"gorm.io/gorm"
)

// HealthCheck returns the health endpoint; the master database must answer
func HealthCheck(service string, master *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := database.Ping(master); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status":  "unhealthy",
				"service": service,
				"error":   err.Error(),
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "healthy",
			"service": service,
		})
	}
}

// MetricsHandler exposes Prometheus metrics
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
