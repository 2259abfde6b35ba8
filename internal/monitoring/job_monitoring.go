package monitoring

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/webhook"
)

// JobExecutionStatus represents different sweep execution states
type JobExecutionStatus string

const (
	JobStatusPending JobExecutionStatus = "pending"
	JobStatusRunning JobExecutionStatus = "running"
	JobStatusSuccess JobExecutionStatus = "success"
	JobStatusFailed  JobExecutionStatus = "failed"
	JobStatusStalled JobExecutionStatus = "stalled"
)

// JobStatus contains complete status information for one scheduled sweep
type JobStatus struct {
	JobName             string             `json:"job_name"`
	Status              JobExecutionStatus `json:"status"`
	LastRunTime         time.Time          `json:"last_run_time"`
	LastDuration        time.Duration      `json:"last_duration_ms"`
	SuccessCount        int64              `json:"success_count"`
	FailureCount        int64              `json:"failure_count"`
	ConsecutiveFailures int64              `json:"consecutive_failures"`
	LastError           string             `json:"last_error,omitempty"`
	AverageExecution    time.Duration      `json:"average_execution_ms"`
	MaxExecutionTime    time.Duration      `json:"max_execution_ms"`
	MinExecutionTime    time.Duration      `json:"min_execution_ms"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// JobsSummary provides an overview of all sweep statuses
type JobsSummary struct {
	TotalJobs      int       `json:"total_jobs"`
	RunningJobs    int       `json:"running_jobs"`
	HealthyJobs    int       `json:"healthy_jobs"`
	UnhealthyJobs  int       `json:"unhealthy_jobs"`
	StalledJobs    int       `json:"stalled_jobs"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// JobStatusManager manages sweep status tracking with thread-safe operations
type JobStatusManager struct {
	mu               sync.RWMutex
	statuses         map[string]*JobStatus
	logger           *logger.Logger
	metrics          *BackgroundJobMetrics
	stalledThreshold time.Duration
}

// NewJobStatusManager creates a new job status manager instance
func NewJobStatusManager(logger *logger.Logger, metrics *BackgroundJobMetrics) *JobStatusManager {
	jsm := &JobStatusManager{
		statuses:         make(map[string]*JobStatus),
		logger:           logger,
		metrics:          metrics,
		stalledThreshold: 5 * time.Minute,
	}

	go jsm.startStalledJobDetection()

	return jsm
}

// RegisterJob registers a new sweep for monitoring
func (jsm *JobStatusManager) RegisterJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	if _, exists := jsm.statuses[jobName]; !exists {
		jsm.statuses[jobName] = &JobStatus{
			JobName:          jobName,
			Status:           JobStatusPending,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
			MinExecutionTime: time.Duration(math.MaxInt64),
		}

		jsm.logger.Info("Job registered for monitoring", map[string]string{
			"job_name": jobName,
		})
	}
}

// StartJob marks a sweep as started and updates its status
func (jsm *JobStatusManager) StartJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		status = &JobStatus{
			JobName:          jobName,
			CreatedAt:        time.Now(),
			MinExecutionTime: time.Duration(math.MaxInt64),
		}
		jsm.statuses[jobName] = status
	}

	status.Status = JobStatusRunning
	status.LastRunTime = time.Now()
	status.UpdatedAt = time.Now()

	jsm.metrics.activeJobs.Inc()

	jsm.logger.Info("Job started", map[string]string{
		"job_name":   jobName,
		"start_time": status.LastRunTime.Format(time.RFC3339),
	})
}

// CompleteJob marks a sweep as completed and updates all relevant statistics
func (jsm *JobStatusManager) CompleteJob(jobName string, err error) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		jsm.logger.Error("Attempted to complete unregistered job", map[string]string{
			"job_name": jobName,
		})
		return
	}

	duration := time.Since(status.LastRunTime)
	status.LastDuration = duration
	status.UpdatedAt = time.Now()

	if duration < status.MinExecutionTime || status.MinExecutionTime == time.Duration(math.MaxInt64) {
		status.MinExecutionTime = duration
	}
	if duration > status.MaxExecutionTime {
		status.MaxExecutionTime = duration
	}

	totalRuns := status.SuccessCount + status.FailureCount
	if totalRuns > 0 {
		totalTime := status.AverageExecution * time.Duration(totalRuns)
		totalTime += duration
		status.AverageExecution = totalTime / time.Duration(totalRuns+1)
	} else {
		status.AverageExecution = duration
	}

	if err != nil {
		status.Status = JobStatusFailed
		status.FailureCount++
		status.ConsecutiveFailures++
		status.LastError = err.Error()

		jsm.metrics.jobRuns.WithLabelValues(jobName, "error").Inc()
		jsm.metrics.jobDuration.WithLabelValues(jobName, "failed").Observe(duration.Seconds())

		jsm.logger.Error("Job failed", map[string]string{
			"job_name":             jobName,
			"duration":             duration.String(),
			"error":                err.Error(),
			"error_type":           classifyJobError(err),
			"consecutive_failures": fmt.Sprintf("%d", status.ConsecutiveFailures),
		})
	} else {
		status.Status = JobStatusSuccess
		status.SuccessCount++
		status.ConsecutiveFailures = 0
		status.LastError = ""

		jsm.metrics.jobRuns.WithLabelValues(jobName, "success").Inc()
		jsm.metrics.jobDuration.WithLabelValues(jobName, "success").Observe(duration.Seconds())

		jsm.logger.Info("Job completed successfully", map[string]string{
			"job_name": jobName,
			"duration": duration.String(),
		})
	}

	jsm.metrics.activeJobs.Dec()
}

// GetJobStatus returns the current status of a specific sweep
func (jsm *JobStatusManager) GetJobStatus(jobName string) (*JobStatus, bool) {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	if status, exists := jsm.statuses[jobName]; exists {
		statusCopy := *status
		return &statusCopy, true
	}

	return nil, false
}

// GetAllJobStatuses returns the current status of all sweeps
func (jsm *JobStatusManager) GetAllJobStatuses() map[string]JobStatus {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	result := make(map[string]JobStatus)
	currentTime := time.Now()

	for name, status := range jsm.statuses {
		statusCopy := *status

		if status.Status == JobStatusRunning &&
			currentTime.Sub(status.LastRunTime) > jsm.stalledThreshold {
			statusCopy.Status = JobStatusStalled
		}

		result[name] = statusCopy
	}

	return result
}

// GetJobsSummary returns a summary of all sweep statuses
func (jsm *JobStatusManager) GetJobsSummary() JobsSummary {
	statuses := jsm.GetAllJobStatuses()

	summary := JobsSummary{
		TotalJobs:      len(statuses),
		LastUpdateTime: time.Now(),
	}

	for _, status := range statuses {
		switch status.Status {
		case JobStatusRunning:
			summary.RunningJobs++
		case JobStatusSuccess:
			if status.ConsecutiveFailures == 0 {
				summary.HealthyJobs++
			} else {
				summary.UnhealthyJobs++
			}
		case JobStatusFailed:
			summary.UnhealthyJobs++
		case JobStatusStalled:
			summary.StalledJobs++
		}
	}

	return summary
}

func (jsm *JobStatusManager) startStalledJobDetection() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		jsm.detectStalledJobs()
	}
}

// detectStalledJobs checks for sweeps running longer than the threshold
func (jsm *JobStatusManager) detectStalledJobs() {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	currentTime := time.Now()
	stalledCount := 0

	for jobName, status := range jsm.statuses {
		if status.Status == JobStatusRunning &&
			currentTime.Sub(status.LastRunTime) > jsm.stalledThreshold {

			status.Status = JobStatusStalled
			status.UpdatedAt = currentTime
			stalledCount++

			jsm.logger.Error("Job detected as stalled", map[string]string{
				"job_name":      jobName,
				"last_run_time": status.LastRunTime.Format(time.RFC3339),
				"duration":      currentTime.Sub(status.LastRunTime).String(),
			})
		}
	}

	jsm.metrics.stalledJobs.Set(float64(stalledCount))
}

// InstrumentedJob wraps a sweep function with monitoring, timeout, panic
// recovery, and an optional uptime webhook ping on success.
type InstrumentedJob struct {
	jobName       string
	jobFunc       func() error
	statusManager *JobStatusManager
	logger        *logger.Logger
	timeout       time.Duration
	webhookClient *webhook.Client
	webhookURL    string
}

// NewInstrumentedJob creates a new instrumented job wrapper
func NewInstrumentedJob(
	jobName string,
	jobFunc func() error,
	statusManager *JobStatusManager,
	logger *logger.Logger,
	timeout time.Duration,
) *InstrumentedJob {
	return NewInstrumentedJobWithWebhook(jobName, jobFunc, statusManager, logger, timeout, nil, "")
}

// NewInstrumentedJobWithWebhook creates an instrumented job that pings an
// uptime webhook after each successful run
func NewInstrumentedJobWithWebhook(
	jobName string,
	jobFunc func() error,
	statusManager *JobStatusManager,
	logger *logger.Logger,
	timeout time.Duration,
	webhookClient *webhook.Client,
	webhookURL string,
) *InstrumentedJob {
	statusManager.RegisterJob(jobName)

	return &InstrumentedJob{
		jobName:       jobName,
		jobFunc:       jobFunc,
		statusManager: statusManager,
		logger:        logger,
		timeout:       timeout,
		webhookClient: webhookClient,
		webhookURL:    webhookURL,
	}
}

// Execute runs the sweep with monitoring, timeout, and panic recovery.
// The sweep's own error is returned so schedulers can decide what to do
// with configuration failures.
func (ij *InstrumentedJob) Execute() error {
	ij.statusManager.StartJob(ij.jobName)

	ctx, cancel := context.WithTimeout(context.Background(), ij.timeout)
	defer cancel()

	var err error

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ij.logger.Error("Job panicked", map[string]string{
					"job_name":    ij.jobName,
					"panic":       fmt.Sprintf("%v", r),
					"stack_trace": string(debug.Stack()),
				})
				done <- fmt.Errorf("job panicked: %v", r)
			}
		}()
		done <- ij.jobFunc()
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("job timeout after %v", ij.timeout)
	}

	ij.statusManager.CompleteJob(ij.jobName, err)

	if err == nil && ij.webhookClient != nil {
		ij.webhookClient.CallUptimeWebhook(context.Background(), ij.webhookURL)
	}

	return err
}

// classifyJobError classifies errors into different types for better monitoring
func classifyJobError(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "sql"):
		return "database"
	case strings.Contains(errStr, "connection"), strings.Contains(errStr, "network"):
		return "network"
	case strings.Contains(errStr, "backend"), strings.Contains(errStr, "config"):
		return "configuration"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
