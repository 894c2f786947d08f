package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(&LogConfig{Level: "debug", Environment: "production", ServiceName: "test"}))
	assert.True(t, GetLogger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(&LogConfig{Level: "bogus", Environment: "development", ServiceName: "test"}))
	assert.False(t, GetLogger().Core().Enabled(zap.DebugLevel))
	assert.True(t, GetLogger().Core().Enabled(zap.InfoLevel))
}

func TestMiddlewareLogsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(Middleware(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error {
		FromContext(c).Info("inside handler")
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, errors.New("short and stout").Error())
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDKey, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	entries := logs.FilterField(zap.String("request_id", "req-1")).All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside handler", entries[0].Message)
	assert.Equal(t, "HTTP request completed", entries[1].Message)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	failed := logs.FilterMessage("HTTP request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(http.StatusTeapot), failed[0].ContextMap()["status"])
}

func TestFromContextFallback(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.NotNil(t, FromContext(c))
}
