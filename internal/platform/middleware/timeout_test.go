package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestTimeout_CompletesWithinDeadline(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/x/slots", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := RequestTimeout(5 * time.Second)(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})

	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestTimeout_ReturnsTimeoutOnExpiry(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/x/available-dates", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestTimeout(50 * time.Millisecond)(func(c echo.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	})

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	assert.Equal(t, http.StatusGatewayTimeout, httpErr.Code)
}

func TestRequestTimeout_ContextHasDeadline(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	h := RequestTimeout(30 * time.Second)(func(c echo.Context) error {
		_, ok := c.Request().Context().Deadline()
		assert.True(t, ok, "expected context to have a deadline")
		return nil
	})
	require.NoError(t, h(c))
}

func TestRequestTimeout_ZeroDisables(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	h := RequestTimeout(0)(func(c echo.Context) error {
		_, ok := c.Request().Context().Deadline()
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, h(c))
}

func TestRequestTimeout_PropagatesHandlerError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/doctors/x/blocks/y", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	h := RequestTimeout(5 * time.Second)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}
