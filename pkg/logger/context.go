package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDKey is both the header name and the echo context key of the request id
const RequestIDKey = "X-Request-ID"

const loggerKey = "logger"

// FromContext retrieves the request logger from echo.Context, falling back
// to the global logger tagged with whatever request id is known.
func FromContext(c echo.Context) *zap.Logger {
	if logger, ok := c.Get(loggerKey).(*zap.Logger); ok {
		return logger
	}

	requestID, ok := c.Get(RequestIDKey).(string)
	if !ok {
		requestID = c.Request().Header.Get(RequestIDKey)
		if requestID == "" {
			requestID = "unknown"
		}
	}

	return GetLogger().With(zap.String("request_id", requestID))
}

// SetContext stores a request logger in the echo context
func SetContext(c echo.Context, logger *zap.Logger) {
	c.Set(loggerKey, logger)
}
