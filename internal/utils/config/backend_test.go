package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBackendsYAML = `
backends:
  BITCOIN:
    code: btc
    chain: bitcoin
    active: true
    network: mainnet
    api_url: https://blockstream.info/api
    master_public_key: xpub6BfKpqjTwvH21wJGWEfxLppb8sU7C6FJge2kWb9315oP4ZVqCXG29cdUtkyu7YQhHyfA5nt63nzcNZHYmqXYHDxYo8mm1Xq1dAC7YtodwUR
    cancel_unpaid_payment_hrs: 24
    create_new_underpaid_payment: true
    ignore_underpayment_amount: 10
    refresh_price_after_minute: 15
    balance_confirmation_num: 1
    ignore_confirmed_balance_without_saved_hash_mins: 20
    allow_anonymous_payment: true
    explorer_url: https://blockstream.info/tx/%s
  BITCOINTEST:
    code: btc
    chain: bitcoin
    active: false
    network: testnet
    cancel_unpaid_payment_hrs: 24
    refresh_price_after_minute: 15
    balance_confirmation_num: 1
`

func writeBackendsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadBackends(t *testing.T) {
	t.Run("loads a valid config", func(t *testing.T) {
		backends, err := LoadBackends(writeBackendsFile(t, testBackendsYAML))
		require.NoError(t, err)

		assert.Len(t, backends, 2)
		btc := backends["BITCOIN"]
		assert.Equal(t, "btc", btc.Code)
		assert.Equal(t, ChainKindBitcoin, btc.Chain)
		assert.True(t, btc.Active)
		assert.Equal(t, 24, btc.CancelUnpaidPaymentHrs)
		assert.Equal(t, 10.0, btc.IgnoreUnderpaymentAmount)
		assert.Equal(t, 1, btc.BalanceConfirmationNum)
		assert.Equal(t, 20, btc.IgnoreConfirmedBalanceWithoutSavedHashMins)
		assert.True(t, btc.CreateNewUnderpaidPayment)
	})

	t.Run("rejects a backend with missing required fields", func(t *testing.T) {
		_, err := LoadBackends(writeBackendsFile(t, `
backends:
  BROKEN:
    code: btc
    chain: bitcoin
    active: true
`))
		assert.Error(t, err)
	})

	t.Run("rejects an unknown chain kind", func(t *testing.T) {
		_, err := LoadBackends(writeBackendsFile(t, `
backends:
  SOLANA:
    code: sol
    chain: solana
    active: true
    cancel_unpaid_payment_hrs: 24
    refresh_price_after_minute: 15
    balance_confirmation_num: 1
`))
		assert.Error(t, err)
	})

	t.Run("fails when the file does not exist", func(t *testing.T) {
		_, err := LoadBackends("does/not/exist.yaml")
		assert.Error(t, err)
	})
}

func TestAppConfigBackend(t *testing.T) {
	backends, err := LoadBackends(writeBackendsFile(t, testBackendsYAML))
	require.NoError(t, err)
	appConfig := &AppConfig{Backends: backends}

	t.Run("resolves an active backend", func(t *testing.T) {
		cfg, err := appConfig.Backend("BITCOIN")
		require.NoError(t, err)
		assert.Equal(t, "btc", cfg.Code)
	})

	t.Run("fails for an unknown backend", func(t *testing.T) {
		_, err := appConfig.Backend("DOGE")
		assert.True(t, errors.Is(err, ErrBackendNotConfigured))
	})

	t.Run("fails for an inactive backend", func(t *testing.T) {
		_, err := appConfig.Backend("BITCOINTEST")
		assert.True(t, errors.Is(err, ErrBackendInactive))
	})

	t.Run("lists only active backends", func(t *testing.T) {
		assert.Equal(t, []string{"BITCOIN"}, appConfig.ActiveBackends())
	})
}
