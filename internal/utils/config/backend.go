package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrBackendNotConfigured = errors.New("backend is not configured")
	ErrBackendInactive      = errors.New("backend is not active")
)

type ChainKind string

const (
	ChainKindBitcoin ChainKind = "bitcoin"
	ChainKindEVM     ChainKind = "evm"
)

// BackendConfig is the reconciliation policy for one crypto backend,
// e.g. a Bitcoin mainnet or testnet profile.
type BackendConfig struct {
	Code            string    `yaml:"code" validate:"required"`
	Chain           ChainKind `yaml:"chain" validate:"required,oneof=bitcoin evm"`
	Active          bool      `yaml:"active"`
	Network         string    `yaml:"network"`
	APIURL          string    `yaml:"api_url"`
	RPCEndpoint     string    `yaml:"rpc_endpoint"`
	MasterPublicKey string    `yaml:"master_public_key"`

	// CancelUnpaidPaymentHrs is both the expiry window for unpaid
	// payments and the selection window for the status-update sweep.
	CancelUnpaidPaymentHrs    int     `yaml:"cancel_unpaid_payment_hrs" validate:"required,gt=0"`
	CreateNewUnderpaidPayment bool    `yaml:"create_new_underpaid_payment"`
	IgnoreUnderpaymentAmount  float64 `yaml:"ignore_underpayment_amount" validate:"gte=0"`
	RefreshPriceAfterMinute   int     `yaml:"refresh_price_after_minute" validate:"required,gt=0"`
	BalanceConfirmationNum    int     `yaml:"balance_confirmation_num" validate:"required,gte=1"`

	// IgnoreConfirmedBalanceWithoutSavedHashMins is the grace window
	// during which a confirmed balance with no recorded tx hash is still
	// accepted as payment.
	IgnoreConfirmedBalanceWithoutSavedHashMins int `yaml:"ignore_confirmed_balance_without_saved_hash_mins" validate:"gte=0"`

	AllowAnonymousPayment bool    `yaml:"allow_anonymous_payment"`
	ReuseAddress          bool    `yaml:"reuse_address"`
	Fee                   float64 `yaml:"fee" validate:"gte=0"`
	FeePct                float64 `yaml:"fee_pct" validate:"gte=0"`
	ExplorerURL           string  `yaml:"explorer_url"`
	CryptoLogoURL         string  `yaml:"crypto_logo_url"`
}

type backendsFile struct {
	Backends map[string]BackendConfig `yaml:"backends"`
}

// LoadBackends reads the per-backend policy file and validates every entry.
func LoadBackends(path string) (map[string]BackendConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read backends config")
	}

	var f backendsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse backends config")
	}

	validate := validator.New()
	for code, cfg := range f.Backends {
		if err := validate.Struct(cfg); err != nil {
			return nil, errors.Wrapf(err, "invalid config for backend %s", code)
		}
	}

	return f.Backends, nil
}

// Backend resolves the policy for one backend code. It is a pure lookup;
// unknown or inactive codes are configuration errors the caller must
// surface to whatever scheduled the sweep.
func (c *AppConfig) Backend(code string) (BackendConfig, error) {
	cfg, ok := c.Backends[code]
	if !ok {
		return BackendConfig{}, errors.Wrap(ErrBackendNotConfigured, code)
	}
	if !cfg.Active {
		return BackendConfig{}, errors.Wrap(ErrBackendInactive, code)
	}
	return cfg, nil
}

// ActiveBackends returns the codes of all active backends.
func (c *AppConfig) ActiveBackends() []string {
	codes := []string{}
	for code, cfg := range c.Backends {
		if cfg.Active {
			codes = append(codes, code)
		}
	}
	return codes
}
