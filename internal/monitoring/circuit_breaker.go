package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/crypto-payment-backend/internal/chainrpc"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

// CircuitBreakerChainRpc wraps a chain backend adapter with circuit
// breaker functionality. Only the network-bound operations go through
// the breaker; address derivation and URI rendering are local.
type CircuitBreakerChainRpc struct {
	backendCode    string
	wrapped        chainrpc.IChainRpc
	circuitBreaker *gobreaker.CircuitBreaker
	metrics        *ExternalAPIMetrics
	logger         *logger.Logger
	timeoutConfig  TimeoutConfig
}

// NewCircuitBreakerChainRpc creates a new circuit breaker wrapper for a
// chain backend adapter
func NewCircuitBreakerChainRpc(backendCode string, wrapped chainrpc.IChainRpc, config CircuitBreakerConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerChainRpc {
	return NewCircuitBreakerChainRpcWithTimeout(backendCode, wrapped, config, DefaultTimeoutConfig, metrics, logger)
}

// NewCircuitBreakerChainRpcWithTimeout creates a new circuit breaker
// wrapper with a custom timeout config
func NewCircuitBreakerChainRpcWithTimeout(backendCode string, wrapped chainrpc.IChainRpc, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerChainRpc {
	cb := &CircuitBreakerChainRpc{
		backendCode:   backendCode,
		wrapped:       wrapped,
		metrics:       metrics,
		logger:        logger,
		timeoutConfig: timeoutConfig,
	}

	settings := gobreaker.Settings{
		Name:        backendCode,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.ConsecutiveFailureThreshold)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state change", map[string]string{
				"backend": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.UpdateCircuitBreakerState(backendCode, to)
		},
	}

	cb.circuitBreaker = gobreaker.NewCircuitBreaker(settings)
	return cb
}

// executeWithTimeout executes a function with timeout and metrics recording
func (cb *CircuitBreakerChainRpc) executeWithTimeout(operation string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), cb.timeoutConfig.RequestTimeout)
	defer cancel()

	done := make(chan struct{})
	var result interface{}
	var err error

	go func() {
		defer close(done)
		result, err = fn()
	}()

	select {
	case <-done:
		duration := time.Since(start).Seconds()
		status := "success"
		if err != nil {
			status = "error"
			cb.logError(operation, duration, err)
		}
		cb.metrics.RecordAPICall(cb.backendCode, operation, status, duration)
		return result, err

	case <-ctx.Done():
		cb.metrics.RecordTimeout(cb.backendCode, operation)
		cb.logError(operation, time.Since(start).Seconds(), ctx.Err())
		return nil, fmt.Errorf("timeout: %v", ctx.Err())
	}
}

func (cb *CircuitBreakerChainRpc) logError(operation string, duration float64, err error) {
	cb.logger.Error("Chain backend call failed", map[string]string{
		"backend":   cb.backendCode,
		"operation": operation,
		"duration":  fmt.Sprintf("%.3fs", duration),
		"error":     err.Error(),
	})
}

func (cb *CircuitBreakerChainRpc) ConfirmAddressPayment(address string, totalCryptoAmount decimal.Decimal, confirmationNumber int, acceptConfirmedBalWithoutHashMins int, txHash *string) (*chainrpc.ConfirmResult, error) {
	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		return cb.executeWithTimeout("confirm_address_payment", func() (interface{}, error) {
			return cb.wrapped.ConfirmAddressPayment(address, totalCryptoAmount, confirmationNumber, acceptConfirmedBalWithoutHashMins, txHash)
		})
	})

	if err != nil {
		return nil, err
	}

	return result.(*chainrpc.ConfirmResult), nil
}

func (cb *CircuitBreakerChainRpc) ConvertToFiat(amount decimal.Decimal, fiatCurrency string) (decimal.Decimal, error) {
	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		return cb.executeWithTimeout("convert_to_fiat", func() (interface{}, error) {
			return cb.wrapped.ConvertToFiat(amount, fiatCurrency)
		})
	})

	if err != nil {
		return decimal.Zero, err
	}

	return result.(decimal.Decimal), nil
}

func (cb *CircuitBreakerChainRpc) ConvertFromFiat(fiatAmount decimal.Decimal, fiatCurrency string) (decimal.Decimal, error) {
	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		return cb.executeWithTimeout("convert_from_fiat", func() (interface{}, error) {
			return cb.wrapped.ConvertFromFiat(fiatAmount, fiatCurrency)
		})
	})

	if err != nil {
		return decimal.Zero, err
	}

	return result.(decimal.Decimal), nil
}

// DeriveAddress is pure key arithmetic; it bypasses the breaker
func (cb *CircuitBreakerChainRpc) DeriveAddress(index uint32) (string, error) {
	return cb.wrapped.DeriveAddress(index)
}

// PaymentURI is local rendering; it bypasses the breaker
func (cb *CircuitBreakerChainRpc) PaymentURI(address string, amount decimal.Decimal) string {
	return cb.wrapped.PaymentURI(address, amount)
}
