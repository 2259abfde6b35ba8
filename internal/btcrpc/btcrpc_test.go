package btcrpc

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/crypto-payment-backend/internal/types/environments"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

// xpub from the example configuration; any valid mainnet xpub works here.
const testMasterPublicKey = "xpub6BfKpqjTwvH21wJGWEfxLppb8sU7C6FJge2kWb9315oP4ZVqCXG29cdUtkyu7YQhHyfA5nt63nzcNZHYmqXYHDxYo8mm1Xq1dAC7YtodwUR"

type fixedRateOracle struct {
	rate decimal.Decimal
}

func (o *fixedRateOracle) GetRate(symbol string, fiatCurrency string) (decimal.Decimal, error) {
	return o.rate, nil
}

func newTestRpc(t *testing.T) *BtcRpc {
	t.Helper()
	cfg := config.BackendConfig{
		Code:            "btc",
		Chain:           config.ChainKindBitcoin,
		Network:         "mainnet",
		MasterPublicKey: testMasterPublicKey,
	}
	rpc := New(cfg, &fixedRateOracle{rate: decimal.RequireFromString("40000")}, logger.New(environments.Test))
	return rpc.(*BtcRpc)
}

func TestBtcRpc_DeriveAddress(t *testing.T) {
	rpc := newTestRpc(t)

	first, err := rpc.DeriveAddress(0)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := rpc.DeriveAddress(1)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// derivation is deterministic
	again, err := rpc.DeriveAddress(0)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	_, err = btcutil.DecodeAddress(first, networkParams("mainnet"))
	assert.NoError(t, err)
}

func TestBtcRpc_DeriveAddress_InvalidKey(t *testing.T) {
	rpc := newTestRpc(t)
	rpc.cfg.MasterPublicKey = "not-an-xpub"

	_, err := rpc.DeriveAddress(0)
	assert.Error(t, err)
}

func TestBtcRpc_Conversions(t *testing.T) {
	rpc := newTestRpc(t)

	fiat, err := rpc.ConvertToFiat(decimal.RequireFromString("0.5"), "USD")
	require.NoError(t, err)
	assert.True(t, fiat.Equal(decimal.RequireFromString("20000")))

	crypto, err := rpc.ConvertFromFiat(decimal.RequireFromString("20000"), "USD")
	require.NoError(t, err)
	assert.True(t, crypto.Equal(decimal.RequireFromString("0.5")))
}

func TestBtcRpc_PaymentURI(t *testing.T) {
	rpc := newTestRpc(t)

	uri := rpc.PaymentURI("bc1qtest", decimal.RequireFromString("0.015"))
	assert.Equal(t, "bitcoin:bc1qtest?amount=0.015", uri)
}
