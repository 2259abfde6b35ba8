package monitoring

import (
	"time"
)

// CircuitBreakerConfig defines the configuration for circuit breakers
type CircuitBreakerConfig struct {
	MaxRequests                 uint32        `json:"max_requests"`
	Interval                    time.Duration `json:"interval"`
	Timeout                     time.Duration `json:"timeout"`
	ConsecutiveFailureThreshold int           `json:"consecutive_failure_threshold"`
}

// TimeoutConfig defines timeout configurations for different operations
type TimeoutConfig struct {
	ConnectionTimeout  time.Duration `json:"connection_timeout"`
	RequestTimeout     time.Duration `json:"request_timeout"`
	HealthCheckTimeout time.Duration `json:"health_check_timeout"`
}

// CircuitBreakerConfigs provides default configurations per chain kind.
// Esplora-style HTTP APIs recover faster than JSON-RPC nodes, hence the
// shorter open interval.
var CircuitBreakerConfigs = map[string]CircuitBreakerConfig{
	"bitcoin": {
		MaxRequests:                 5,
		Interval:                    30 * time.Second,
		Timeout:                     60 * time.Second,
		ConsecutiveFailureThreshold: 3,
	},
	"evm": {
		MaxRequests:                 3,
		Interval:                    45 * time.Second,
		Timeout:                     120 * time.Second,
		ConsecutiveFailureThreshold: 5,
	},
}

// DefaultTimeoutConfig provides default timeout configurations
var DefaultTimeoutConfig = TimeoutConfig{
	ConnectionTimeout:  5 * time.Second,
	RequestTimeout:     20 * time.Second,
	HealthCheckTimeout: 3 * time.Second,
}
