package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/dwarvesf/crypto-payment-backend/internal/types/environments"
)

type AppConfig struct {
	Environment environments.Environment
	ApiServer   ApiServerConfig
	Postgres    DBConnection
	PriceFeed   PriceFeedConfig

	UptimeWebhooks UptimeWebhookConfig

	// Backends holds the per-chain reconciliation policies, loaded once
	// at startup. Sweeps resolve their policy through Backend() and never
	// re-read it mid-run.
	Backends map[string]BackendConfig
}

type ApiServerConfig struct {
	AllowedOrigins string
}

type DBConnection struct {
	Host string
	Port string
	User string
	Name string
	Pass string

	SSLMode string
}

type PriceFeedConfig struct {
	APIURL string
}

// UptimeWebhookConfig holds optional ping URLs hit after each successful
// sweep run, one per sweep kind.
type UptimeWebhookConfig struct {
	UpdatePaymentStatusURL  string
	CancelUnpaidPaymentsURL string
	RefreshPaymentPricesURL string
}

func New() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// this will not override env variables if they already exist
	godotenv.Load(".env." + env)

	backendsPath := os.Getenv("BACKENDS_CONFIG_PATH")
	if backendsPath == "" {
		backendsPath = "configs/backends.yaml"
	}

	backends, err := LoadBackends(backendsPath)
	if err != nil {
		panic(err)
	}

	return &AppConfig{
		Environment: environments.Environment(env),
		ApiServer: ApiServerConfig{
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: os.Getenv("DB_SSL_MODE"),
		},
		PriceFeed: PriceFeedConfig{
			APIURL: os.Getenv("PRICE_FEED_API_URL"),
		},
		UptimeWebhooks: UptimeWebhookConfig{
			UpdatePaymentStatusURL:  os.Getenv("UPTIME_WEBHOOK_UPDATE_PAYMENT_STATUS"),
			CancelUnpaidPaymentsURL: os.Getenv("UPTIME_WEBHOOK_CANCEL_UNPAID_PAYMENTS"),
			RefreshPaymentPricesURL: os.Getenv("UPTIME_WEBHOOK_REFRESH_PAYMENT_PRICES"),
		},
		Backends: backends,
	}
}
