package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/supritimishra/FuelOne-1-sub007/pkg/logger"
	"go.uber.org/zap"
)

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{
		"success": true,
		"data":    data,
	})
}

func failure(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{
		"success": false,
		"error":   message,
	})
}

// ErrorHandler writes errors returned by handlers and middlewares in the
// same envelope as handler responses.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = fmt.Sprint(he.Message)
		if he.Internal != nil {
			logger.FromContext(c).Debug("HTTP error", zap.Error(he.Internal))
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if werr := failure(c, status, message); werr != nil {
		logger.FromContext(c).Error("Failed to write error response", zap.Error(werr))
	}
}
