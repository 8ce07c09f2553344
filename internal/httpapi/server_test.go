package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/auditlog"
	"github.com/hamed0406/checkwatch/internal/metrics"
	"github.com/hamed0406/checkwatch/internal/scheduler"
)

type fixedStatus scheduler.Status

func (f fixedStatus) Status() scheduler.Status { return scheduler.Status(f) }

func setupRouter(t *testing.T) (http.Handler, *auditlog.Dir) {
	t.Helper()
	logs, err := auditlog.New(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Alert("sent")

	status := fixedStatus{LastCheckCycle: time.UnixMilli(1755518400000)}
	srv := NewServer(zap.NewNop(), logs, status, reg)
	return srv.Router(), logs
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthz_ReportsLastCycle(t *testing.T) {
	h, _ := setupRouter(t)
	rr := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, float64(1755518400000), body["lastCheckCycle"])
	_, hasRotation := body["lastRotation"]
	require.False(t, hasRotation, "zero rotation time must be omitted")
}

func TestMetrics_ExposesRegistry(t *testing.T) {
	h, _ := setupRouter(t)
	rr := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `checkwatch_alerts_total{result="sent"} 1`)
}

func TestListLogs_ActiveAndCompressed(t *testing.T) {
	h, logs := setupRouter(t)
	require.NoError(t, logs.Append("abc", []byte(`{"state":"up"}`)))
	require.NoError(t, logs.Compress("abc", "abc-1"))

	var active []string
	rr := get(t, h, "/api/logs")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &active))
	require.Equal(t, []string{"abc"}, active)

	var all []string
	rr = get(t, h, "/api/logs?compressed=true")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.ElementsMatch(t, []string{"abc", "abc-1"}, all)
}

func TestListLogs_EmptyIsArray(t *testing.T) {
	h, _ := setupRouter(t)
	rr := get(t, h, "/api/logs")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestArchive_ReturnsDecompressedBody(t *testing.T) {
	h, logs := setupRouter(t)
	require.NoError(t, logs.Append("abc", []byte(`{"n":1}`)))
	require.NoError(t, logs.Append("abc", []byte(`{"n":2}`)))
	require.NoError(t, logs.Compress("abc", "abc-1"))

	rr := get(t, h, "/api/logs/abc-1/archive")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "{\"n\":1}\n{\"n\":2}\n", rr.Body.String())

	rr = get(t, h, "/api/logs/missing/archive")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = get(t, h, "/api/logs/../archive")
	require.NotEqual(t, http.StatusOK, rr.Code)
}
