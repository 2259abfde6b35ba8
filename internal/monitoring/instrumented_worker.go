package monitoring

import (
	"time"

	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/webhook"
	"github.com/dwarvesf/crypto-payment-backend/internal/worker"
)

// InstrumentedWorker wraps the base worker with job monitoring, timeouts,
// and uptime webhook pings. The scheduler only ever sees this wrapper.
type InstrumentedWorker struct {
	baseWorker    worker.IWorker
	statusManager *JobStatusManager
	metrics       *BackgroundJobMetrics
	logger        *logger.Logger
	config        *config.AppConfig
	webhookClient *webhook.Client
}

// NewInstrumentedWorker creates a new instrumented worker wrapper
func NewInstrumentedWorker(
	baseWorker worker.IWorker,
	statusManager *JobStatusManager,
	metrics *BackgroundJobMetrics,
	logger *logger.Logger,
	config *config.AppConfig,
) *InstrumentedWorker {
	return &InstrumentedWorker{
		baseWorker:    baseWorker,
		statusManager: statusManager,
		metrics:       metrics,
		logger:        logger,
		config:        config,
		webhookClient: webhook.New(logger),
	}
}

// UpdatePaymentStatus wraps the status sweep with job monitoring
func (iw *InstrumentedWorker) UpdatePaymentStatus(backendCode string) error {
	return iw.executeJobWithWebhook(
		"payment_status_update:"+backendCode,
		func() error { return iw.baseWorker.UpdatePaymentStatus(backendCode) },
		iw.config.UptimeWebhooks.UpdatePaymentStatusURL,
		10*time.Minute,
	)
}

// CancelUnpaidPayments wraps the expiry sweep with job monitoring
func (iw *InstrumentedWorker) CancelUnpaidPayments(backendCode string) error {
	return iw.executeJobWithWebhook(
		"unpaid_payment_expiry:"+backendCode,
		func() error { return iw.baseWorker.CancelUnpaidPayments(backendCode) },
		iw.config.UptimeWebhooks.CancelUnpaidPaymentsURL,
		5*time.Minute,
	)
}

// RefreshPaymentPrices wraps the price refresh sweep with job monitoring
func (iw *InstrumentedWorker) RefreshPaymentPrices(backendCode string) error {
	return iw.executeJobWithWebhook(
		"payment_price_refresh:"+backendCode,
		func() error { return iw.baseWorker.RefreshPaymentPrices(backendCode) },
		iw.config.UptimeWebhooks.RefreshPaymentPricesURL,
		10*time.Minute,
	)
}

func (iw *InstrumentedWorker) executeJobWithWebhook(jobName string, jobFunc func() error, webhookURL string, timeout time.Duration) error {
	job := NewInstrumentedJobWithWebhook(
		jobName,
		jobFunc,
		iw.statusManager,
		iw.logger,
		timeout,
		iw.webhookClient,
		webhookURL,
	)

	return job.Execute()
}
