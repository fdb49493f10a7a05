package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func runReadiness(t *testing.T, deps map[string]Pinger) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ReadinessHandler(deps)(c))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	code, body := runReadiness(t, map[string]Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{},
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, map[string]interface{}{"postgres": "ok", "redis": "ok"}, body["checks"])
}

func TestReadinessHandler_OneDown(t *testing.T) {
	code, body := runReadiness(t, map[string]Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "connection refused", checks["redis"])
	assert.Equal(t, "ok", checks["postgres"])
}

func TestReadinessHandler_NoDependencies(t *testing.T) {
	code, _ := runReadiness(t, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPoolStats_JSON(t *testing.T) {
	raw, err := json.Marshal(PoolStats{TotalConns: 1, MaxConns: 10, AcquireDuration: "250ms", Healthy: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_conns":1,"idle_conns":0,"acquired_conns":0,"max_conns":10,
		"acquire_count":0,"acquire_duration":"250ms","healthy":true}`, string(raw))
}
