package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/crypto-payment-backend/internal/monitoring"
	"github.com/dwarvesf/crypto-payment-backend/internal/types/environments"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

func newStatusManager() *monitoring.JobStatusManager {
	metrics := monitoring.NewBackgroundJobMetrics()
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)
	return monitoring.NewJobStatusManager(logger.New(environments.Test), metrics)
}

func newJobsRouter(jsm *monitoring.JobStatusManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(&config.AppConfig{Environment: environments.Test}, logger.New(environments.Test), nil, jsm)

	r := gin.New()
	r.GET("/healthz", h.Basic)
	r.GET("/api/v1/health/db", h.Database)
	r.GET("/api/v1/health/jobs", h.Jobs)
	return r
}

func doRequest(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestBasic(t *testing.T) {
	r := newJobsRouter(newStatusManager())

	w := doRequest(r, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())
}

func TestDatabase_NoConnection(t *testing.T) {
	r := newJobsRouter(newStatusManager())

	w := doRequest(r, "/api/v1/health/db")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "database connection not available", resp.Checks["database"].Error)
}

func TestJobs(t *testing.T) {
	t.Run("healthy sweeps", func(t *testing.T) {
		jsm := newStatusManager()
		jsm.RegisterJob("payment_status_update:BITCOIN")
		jsm.StartJob("payment_status_update:BITCOIN")
		jsm.CompleteJob("payment_status_update:BITCOIN", nil)

		w := doRequest(newJobsRouter(jsm), "/api/v1/health/jobs")
		require.Equal(t, http.StatusOK, w.Code)

		var resp JobsHealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, 1, resp.Summary.TotalJobs)
	})

	t.Run("failing expiry sweep degrades the service", func(t *testing.T) {
		jsm := newStatusManager()
		jsm.RegisterJob("unpaid_payment_expiry:BITCOIN")
		jsm.StartJob("unpaid_payment_expiry:BITCOIN")
		jsm.CompleteJob("unpaid_payment_expiry:BITCOIN", errors.New("db down"))

		w := doRequest(newJobsRouter(jsm), "/api/v1/health/jobs")
		assert.Equal(t, http.StatusPartialContent, w.Code)
	})

	t.Run("repeatedly failing status sweep is unhealthy", func(t *testing.T) {
		jsm := newStatusManager()
		jsm.RegisterJob("payment_status_update:BITCOIN")
		for i := 0; i < 3; i++ {
			jsm.StartJob("payment_status_update:BITCOIN")
			jsm.CompleteJob("payment_status_update:BITCOIN", errors.New("esplora down"))
		}

		w := doRequest(newJobsRouter(jsm), "/api/v1/health/jobs")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("missing status manager", func(t *testing.T) {
		w := doRequest(newJobsRouter(nil), "/api/v1/health/jobs")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
