package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecker_Healthy(t *testing.T) {
	h := NewHealthChecker(pingerFunc(func(ctx context.Context) error { return nil }))
	h.AddCheck("provider_circuit", func(ctx context.Context) error { return nil })

	status := h.Check(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["database"])
	assert.Equal(t, "healthy", status.Checks["provider_circuit"])
}

func TestHealthChecker_HandlerReportsFailure(t *testing.T) {
	h := NewHealthChecker(pingerFunc(func(ctx context.Context) error { return errors.New("connection refused") }))

	rec := httptest.NewRecorder()
	h.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "unhealthy: connection refused", status.Checks["database"])
}

func TestHealthChecker_NoDatabase(t *testing.T) {
	status := NewHealthChecker(nil).Check(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Empty(t, status.Checks)
}

func TestReadiness(t *testing.T) {
	var r Readiness
	rec := httptest.NewRecorder()
	r.Handler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	r.SetReady(true)
	rec = httptest.NewRecorder()
	r.Handler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())
}

func TestMetricsServerRoutes(t *testing.T) {
	var r Readiness
	r.SetReady(true)
	server := NewMetricsServer("0", NewHealthChecker(nil), &r)

	for _, path := range []string{"/metrics", "/health", "/ready"} {
		rec := httptest.NewRecorder()
		server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestInstrumentHandler_PassesThroughStatus(t *testing.T) {
	handler := InstrumentHandler("/v1/orders/{order_id}/capture", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/orders/1/capture", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
