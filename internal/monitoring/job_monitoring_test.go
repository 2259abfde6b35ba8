package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatusManager() *JobStatusManager {
	metrics := NewBackgroundJobMetrics()
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	return NewJobStatusManager(setupTestLogger(), metrics)
}

func TestJobStatusManager_RegisterJob(t *testing.T) {
	jsm := newTestStatusManager()

	jsm.RegisterJob("status_sweep")

	status, exists := jsm.GetJobStatus("status_sweep")
	require.True(t, exists)
	assert.Equal(t, JobStatusPending, status.Status)
	assert.Equal(t, int64(0), status.SuccessCount)
	assert.Equal(t, int64(0), status.FailureCount)
}

func TestJobStatusManager_CompleteJob(t *testing.T) {
	t.Run("successful run resets consecutive failures", func(t *testing.T) {
		jsm := newTestStatusManager()
		jsm.RegisterJob("status_sweep")

		jsm.StartJob("status_sweep")
		jsm.CompleteJob("status_sweep", errors.New("esplora down"))

		jsm.StartJob("status_sweep")
		jsm.CompleteJob("status_sweep", nil)

		status, exists := jsm.GetJobStatus("status_sweep")
		require.True(t, exists)
		assert.Equal(t, JobStatusSuccess, status.Status)
		assert.Equal(t, int64(1), status.SuccessCount)
		assert.Equal(t, int64(1), status.FailureCount)
		assert.Equal(t, int64(0), status.ConsecutiveFailures)
		assert.Empty(t, status.LastError)
	})

	t.Run("failures accumulate", func(t *testing.T) {
		jsm := newTestStatusManager()
		jsm.RegisterJob("status_sweep")

		for i := 0; i < 3; i++ {
			jsm.StartJob("status_sweep")
			jsm.CompleteJob("status_sweep", errors.New("connection refused"))
		}

		status, exists := jsm.GetJobStatus("status_sweep")
		require.True(t, exists)
		assert.Equal(t, JobStatusFailed, status.Status)
		assert.Equal(t, int64(3), status.ConsecutiveFailures)
		assert.Equal(t, "connection refused", status.LastError)
	})

	t.Run("completing an unregistered job is a no-op", func(t *testing.T) {
		jsm := newTestStatusManager()
		jsm.CompleteJob("ghost", nil)

		_, exists := jsm.GetJobStatus("ghost")
		assert.False(t, exists)
	})
}

func TestJobStatusManager_GetJobsSummary(t *testing.T) {
	jsm := newTestStatusManager()

	jsm.RegisterJob("healthy")
	jsm.StartJob("healthy")
	jsm.CompleteJob("healthy", nil)

	jsm.RegisterJob("failing")
	jsm.StartJob("failing")
	jsm.CompleteJob("failing", errors.New("boom"))

	jsm.RegisterJob("running")
	jsm.StartJob("running")

	summary := jsm.GetJobsSummary()
	assert.Equal(t, 3, summary.TotalJobs)
	assert.Equal(t, 1, summary.HealthyJobs)
	assert.Equal(t, 1, summary.UnhealthyJobs)
	assert.Equal(t, 1, summary.RunningJobs)
}

func TestJobStatusManager_StalledDetection(t *testing.T) {
	jsm := newTestStatusManager()
	jsm.stalledThreshold = 10 * time.Millisecond

	jsm.RegisterJob("slow_sweep")
	jsm.StartJob("slow_sweep")

	time.Sleep(20 * time.Millisecond)

	statuses := jsm.GetAllJobStatuses()
	assert.Equal(t, JobStatusStalled, statuses["slow_sweep"].Status)

	summary := jsm.GetJobsSummary()
	assert.Equal(t, 1, summary.StalledJobs)
}

func TestInstrumentedJob_Execute(t *testing.T) {
	t.Run("propagates the sweep error", func(t *testing.T) {
		jsm := newTestStatusManager()

		job := NewInstrumentedJob("failing_sweep", func() error {
			return errors.New("backend is not configured")
		}, jsm, setupTestLogger(), time.Second)

		err := job.Execute()
		assert.Error(t, err)

		status, _ := jsm.GetJobStatus("failing_sweep")
		assert.Equal(t, JobStatusFailed, status.Status)
	})

	t.Run("recovers from a panicking sweep", func(t *testing.T) {
		jsm := newTestStatusManager()

		job := NewInstrumentedJob("panicking_sweep", func() error {
			panic("nil map write")
		}, jsm, setupTestLogger(), time.Second)

		err := job.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
	})

	t.Run("times out a hung sweep", func(t *testing.T) {
		jsm := newTestStatusManager()

		job := NewInstrumentedJob("hung_sweep", func() error {
			time.Sleep(time.Second)
			return nil
		}, jsm, setupTestLogger(), 10*time.Millisecond)

		err := job.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})
}

func TestClassifyJobError(t *testing.T) {
	assert.Equal(t, "", classifyJobError(nil))
	assert.Equal(t, "timeout", classifyJobError(errors.New("context deadline exceeded")))
	assert.Equal(t, "database", classifyJobError(errors.New("sql: no rows")))
	assert.Equal(t, "network", classifyJobError(errors.New("connection refused")))
	assert.Equal(t, "configuration", classifyJobError(errors.New("backend is not configured")))
	assert.Equal(t, "unknown", classifyJobError(errors.New("something else")))
}
