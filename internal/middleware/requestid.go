package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
)

// RequestIDMiddleware reuses the caller's X-Request-ID or generates one, and
// echoes it back on the response.
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(logger.RequestIDKey)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request().Header.Set(logger.RequestIDKey, requestID)
		}
		c.Set(logger.RequestIDKey, requestID)
		c.Response().Header().Set(logger.RequestIDKey, requestID)
		return next(c)
	}
}
