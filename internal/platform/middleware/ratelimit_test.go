package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedHandler(cfg RateLimitConfig) echo.HandlerFunc {
	return RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func requestFrom(e *echo.Echo, ip string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		c, rec := requestFrom(e, "10.0.0.1")
		require.NoError(t, handler(c), "request %d", i+1)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		c, _ := requestFrom(e, "10.0.0.1")
		require.NoError(t, handler(c))
	}

	c, rec := requestFrom(e, "10.0.0.1")
	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Code)

	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, convErr)
	assert.GreaterOrEqual(t, retry, 1)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	e := echo.New()
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	c, _ := requestFrom(e, "10.0.0.1")
	require.NoError(t, handler(c))
	c, _ = requestFrom(e, "10.0.0.1")
	assert.Error(t, handler(c))

	c, _ = requestFrom(e, "10.0.0.2")
	assert.NoError(t, handler(c))
}

func TestRateLimit_ZeroRateDisables(t *testing.T) {
	e := echo.New()
	handler := rateLimitedHandler(RateLimitConfig{})
	for i := 0; i < 50; i++ {
		c, _ := requestFrom(e, "10.0.0.1")
		require.NoError(t, handler(c))
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	assert.Equal(t, 100.0, cfg.RequestsPerSecond)
	assert.Equal(t, 200, cfg.BurstSize)
	assert.Equal(t, 10*time.Minute, cfg.IdleTTL)
}

func TestLimiterStore_ReusesAndEvicts(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	a := store.get("a")
	assert.Same(t, a, store.get("a"))
	assert.NotSame(t, a, store.get("b"))
	assert.Equal(t, 2, store.size())

	now = now.Add(2 * time.Minute)
	store.get("c")
	assert.Equal(t, 1, store.size(), "idle clients should be swept")
}
