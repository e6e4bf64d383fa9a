package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/internal/health"
)

func quiet() health.Option {
	return health.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) health.Report {
	t.Helper()
	var r health.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

func TestLiveness_AlwaysOK(t *testing.T) {
	h := health.New(quiet())

	rec := get(t, h.Routes(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReadiness_NotReadyUntilSet(t *testing.T) {
	h := health.New(quiet(), health.WithCheck("store", func(context.Context) error { return nil }))

	rec := get(t, h.Routes(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "starting", decode(t, rec).Status)

	h.SetReady(true)
	rec = get(t, h.Routes(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	report := decode(t, rec)
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, map[string]string{"store": "ok"}, report.Checks)
}

func TestReadiness_FailingCheck(t *testing.T) {
	h := health.New(quiet(),
		health.WithCheck("store", func(context.Context) error { return errors.New("connection refused") }),
		health.WithCheck("sender", health.FromBool(func() bool { return true })),
		health.WithCheck("receiver", health.FromBool(func() bool { return false })),
	)
	h.SetReady(true)

	rec := get(t, h.Routes(), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	report := decode(t, rec)
	assert.Equal(t, "unavailable", report.Status)
	assert.Equal(t, "connection refused", report.Checks["store"])
	assert.Equal(t, "ok", report.Checks["sender"])
	assert.Equal(t, health.ErrUnhealthy.Error(), report.Checks["receiver"])
}

func TestReadiness_CheckTimeout(t *testing.T) {
	h := health.New(quiet(),
		health.WithTimeout(10*time.Millisecond),
		health.WithCheck("slow", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	h.SetReady(true)

	report, ok := h.Evaluate(context.Background())

	assert.False(t, ok)
	assert.Equal(t, context.DeadlineExceeded.Error(), report.Checks["slow"])
}

func TestRoutes_UnknownPath(t *testing.T) {
	h := health.New(quiet())

	rec := get(t, h.Routes(), "/metrics")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_UsesRoutes(t *testing.T) {
	h := health.New(quiet())
	srv := h.Server(":0")

	assert.Equal(t, ":0", srv.Addr)
	rec := get(t, srv.Handler, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
