package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBuildInfo(t *testing.T) {
	assert.Equal(t, "development", DefaultBuildInfo.Version)
	assert.Equal(t, "unknown", DefaultBuildInfo.GitCommit)
	assert.Equal(t, runtime.Version(), DefaultBuildInfo.GoVersion)
}

func TestNewPingHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NewPingHandler("payments-service")
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var info BuildInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "payments-service", info.ServiceName)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.NotEmpty(t, info.Hostname)
	assert.WithinDuration(t, time.Now(), info.ServerTime, time.Minute)
}

func TestNewPingHandler_EnvironmentOverrides(t *testing.T) {
	t.Setenv("VERSION", "1.4.2")
	t.Setenv("GIT_COMMIT", "abc1234")
	t.Setenv("BUILD_TIME", "2026-08-30T10:00:00Z")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, NewPingHandler("reconciler-service")(c))

	var info BuildInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "1.4.2", info.Version)
	assert.Equal(t, "abc1234", info.GitCommit)
	assert.Equal(t, "2026-08-30T10:00:00Z", info.BuildTime)
}

func TestRegisterPingEndpoint(t *testing.T) {
	e := echo.New()
	RegisterPingEndpoint(e, "payments-service")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
