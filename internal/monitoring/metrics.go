package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// ExternalAPIMetrics contains all metrics for chain backend monitoring
type ExternalAPIMetrics struct {
	apiDuration         *prometheus.HistogramVec
	apiCalls            *prometheus.CounterVec
	circuitBreakerState *prometheus.GaugeVec
	timeouts            *prometheus.CounterVec
}

// NewExternalAPIMetrics creates a new instance of external API metrics
func NewExternalAPIMetrics() *ExternalAPIMetrics {
	return &ExternalAPIMetrics{
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crypto_payment_chain_api_duration_seconds",
				Help:    "Duration of chain backend API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation", "status"},
		),

		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypto_payment_chain_api_calls_total",
				Help: "Total number of chain backend API calls",
			},
			[]string{"backend", "status"},
		),

		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crypto_payment_circuit_breaker_state",
				Help: "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"backend"},
		),

		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypto_payment_chain_api_timeouts_total",
				Help: "Total number of chain backend API timeouts",
			},
			[]string{"backend", "operation"},
		),
	}
}

// MustRegister registers all metrics with the provided registry
func (m *ExternalAPIMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.apiDuration,
		m.apiCalls,
		m.circuitBreakerState,
		m.timeouts,
	)
}

// RecordAPICall records an API call with duration and status
func (m *ExternalAPIMetrics) RecordAPICall(backend, operation, status string, duration float64) {
	m.apiDuration.WithLabelValues(backend, operation, status).Observe(duration)
	m.apiCalls.WithLabelValues(backend, status).Inc()
}

// UpdateCircuitBreakerState updates the circuit breaker state metric
func (m *ExternalAPIMetrics) UpdateCircuitBreakerState(backend string, state gobreaker.State) {
	m.circuitBreakerState.WithLabelValues(backend).Set(float64(state))
}

// RecordTimeout records a timeout event
func (m *ExternalAPIMetrics) RecordTimeout(backend, operation string) {
	m.timeouts.WithLabelValues(backend, operation).Inc()
}

// BackgroundJobMetrics contains all Prometheus metrics for sweep monitoring
type BackgroundJobMetrics struct {
	jobDuration  *prometheus.HistogramVec
	jobRuns      *prometheus.CounterVec
	activeJobs   prometheus.Gauge
	stalledJobs  prometheus.Gauge
	openPayments *prometheus.GaugeVec
	jobTimeouts  *prometheus.CounterVec
}

// NewBackgroundJobMetrics creates a new instance of background job metrics
func NewBackgroundJobMetrics() *BackgroundJobMetrics {
	return &BackgroundJobMetrics{
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crypto_payment_sweep_duration_seconds",
				Help:    "Sweep execution duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800},
			},
			[]string{"job_name", "status"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypto_payment_sweep_runs_total",
				Help: "Total number of sweep runs",
			},
			[]string{"job_name", "status"},
		),
		activeJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crypto_payment_sweeps_active",
				Help: "Number of currently running sweeps",
			},
		),
		stalledJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crypto_payment_sweeps_stalled",
				Help: "Number of stalled sweeps",
			},
		),
		openPayments: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crypto_payment_open_payments_total",
				Help: "Number of non-terminal payments by backend",
			},
			[]string{"backend"},
		),
		jobTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypto_payment_sweep_timeouts_total",
				Help: "Total sweep timeouts",
			},
			[]string{"job_name"},
		),
	}
}

// MustRegister registers all background job metrics with the provided registry
func (m *BackgroundJobMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.jobDuration,
		m.jobRuns,
		m.activeJobs,
		m.stalledJobs,
		m.openPayments,
		m.jobTimeouts,
	)
}

// SetOpenPayments records the current number of non-terminal payments
// for a backend.
func (m *BackgroundJobMetrics) SetOpenPayments(backend string, count float64) {
	m.openPayments.WithLabelValues(backend).Set(count)
}
