package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/dwarvesf/crypto-payment-backend/internal/chainrpc"
	"github.com/dwarvesf/crypto-payment-backend/internal/handler/health"
	"github.com/dwarvesf/crypto-payment-backend/internal/handler/metrics"
	"github.com/dwarvesf/crypto-payment-backend/internal/handler/payment"
	"github.com/dwarvesf/crypto-payment-backend/internal/monitoring"
	"github.com/dwarvesf/crypto-payment-backend/internal/store"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

type Handler struct {
	PaymentHandler payment.IHandler
	HealthHandler  health.IHealthHandler
	MetricsHandler *metrics.MetricsHandler
}

func New(appConfig *config.AppConfig, logger *logger.Logger,
	db *gorm.DB,
	store *store.Store,
	registry *chainrpc.Registry,
	metricsRegistry *prometheus.Registry,
	jobStatusManager *monitoring.JobStatusManager) *Handler {
	return &Handler{
		PaymentHandler: payment.New(appConfig, logger, db, store, registry),
		HealthHandler:  health.New(appConfig, logger, db, jobStatusManager),
		MetricsHandler: metrics.NewMetricsHandler(metricsRegistry),
	}
}
