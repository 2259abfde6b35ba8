package server

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/dwarvesf/crypto-payment-backend/internal/btcrpc"
	"github.com/dwarvesf/crypto-payment-backend/internal/chainrpc"
	"github.com/dwarvesf/crypto-payment-backend/internal/evmrpc"
	"github.com/dwarvesf/crypto-payment-backend/internal/monitoring"
	"github.com/dwarvesf/crypto-payment-backend/internal/oracle"
	"github.com/dwarvesf/crypto-payment-backend/internal/store"
	pgstore "github.com/dwarvesf/crypto-payment-backend/internal/store/postgres"
	"github.com/dwarvesf/crypto-payment-backend/internal/transport/http"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
	"github.com/dwarvesf/crypto-payment-backend/internal/worker"
)

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	db := pgstore.New(appConfig, logger)
	s := store.New()

	rateOracle := oracle.New(appConfig, logger)

	metricsRegistry := prometheus.NewRegistry()
	apiMetrics := monitoring.NewExternalAPIMetrics()
	apiMetrics.MustRegister(metricsRegistry)
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	jobMetrics.MustRegister(metricsRegistry)

	statusManager := monitoring.NewJobStatusManager(logger, jobMetrics)

	registry, err := buildRegistry(appConfig, rateOracle, apiMetrics, logger)
	if err != nil {
		logger.Fatal("[Init] failed to build chain backend registry", map[string]string{
			"error": err.Error(),
		})
		return
	}

	baseWorker := worker.New(db, s, appConfig, logger, registry)
	instrumentedWorker := monitoring.NewInstrumentedWorker(baseWorker, statusManager, jobMetrics, logger, appConfig)

	scheduleSweeps(instrumentedWorker, appConfig, logger)

	httpServer := http.NewHttpServer(appConfig, logger, db, s, registry, metricsRegistry, statusManager)
	httpServer.Run()
}

// buildRegistry constructs one chain adapter per active backend, each
// wrapped in a circuit breaker.
func buildRegistry(appConfig *config.AppConfig, rateOracle oracle.IOracle, apiMetrics *monitoring.ExternalAPIMetrics, logger *logger.Logger) (*chainrpc.Registry, error) {
	registry := chainrpc.NewRegistry()

	for _, code := range appConfig.ActiveBackends() {
		cfg, err := appConfig.Backend(code)
		if err != nil {
			return nil, err
		}

		var rpc chainrpc.IChainRpc
		switch cfg.Chain {
		case config.ChainKindBitcoin:
			rpc = btcrpc.New(cfg, rateOracle, logger)
		case config.ChainKindEVM:
			rpc, err = evmrpc.New(cfg, rateOracle, logger)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unsupported chain kind %q for backend %s", cfg.Chain, code)
		}

		breakerCfg, ok := monitoring.CircuitBreakerConfigs[string(cfg.Chain)]
		if !ok {
			breakerCfg = monitoring.CircuitBreakerConfigs[string(config.ChainKindBitcoin)]
		}
		registry.Register(code, monitoring.NewCircuitBreakerChainRpc(code, rpc, breakerCfg, apiMetrics, logger))

		logger.Info("Registered chain backend", map[string]string{
			"backend": code,
			"chain":   string(cfg.Chain),
		})
	}

	return registry, nil
}

// scheduleSweeps wires the three reconciliation sweeps into cron, one
// entry per active backend. The price refresh interval is per backend
// policy; the other two cadences are fixed.
func scheduleSweeps(w worker.IWorker, appConfig *config.AppConfig, logger *logger.Logger) {
	c := cron.New()

	for _, code := range appConfig.ActiveBackends() {
		backendCode := code
		cfg, err := appConfig.Backend(backendCode)
		if err != nil {
			continue
		}

		c.AddFunc("@every 2m", func() {
			w.UpdatePaymentStatus(backendCode)
		})
		c.AddFunc("@hourly", func() {
			w.CancelUnpaidPayments(backendCode)
		})
		c.AddFunc(fmt.Sprintf("@every %dm", cfg.RefreshPriceAfterMinute), func() {
			w.RefreshPaymentPrices(backendCode)
		})

		logger.Info("Scheduled sweeps", map[string]string{
			"backend":               backendCode,
			"price_refresh_minutes": fmt.Sprintf("%d", cfg.RefreshPriceAfterMinute),
		})
	}

	c.Start()
}
