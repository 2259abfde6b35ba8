package btcrpc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dwarvesf/crypto-payment-backend/internal/btcrpc/blockstream"
	"github.com/dwarvesf/crypto-payment-backend/internal/chainrpc"
)

func TestFundingsFromTxs(t *testing.T) {
	const address = "bc1qwatched"

	txs := []blockstream.AddressTx{
		{
			TxID:   "tx-pending",
			Status: blockstream.TxStatus{Confirmed: false},
			Vout: []blockstream.Vout{
				{ScriptPubKeyAddress: address, Value: 50_000_000},
			},
		},
		{
			TxID:   "tx-confirmed",
			Status: blockstream.TxStatus{Confirmed: true, BlockHeight: 98, BlockTime: 1700000000},
			Vout: []blockstream.Vout{
				{ScriptPubKeyAddress: address, Value: 25_000_000},
				{ScriptPubKeyAddress: "bc1qchange", Value: 10_000_000},
			},
		},
		{
			TxID:   "tx-spend",
			Status: blockstream.TxStatus{Confirmed: true, BlockHeight: 95},
			Vout: []blockstream.Vout{
				{ScriptPubKeyAddress: "bc1qelsewhere", Value: 30_000_000},
			},
		},
	}

	fundings := fundingsFromTxs(txs, address, 100)

	assert.Len(t, fundings, 2)
	assert.Equal(t, "tx-pending", fundings[0].txID)
	assert.Equal(t, int64(0), fundings[0].confirmations)
	assert.True(t, fundings[0].amount.Equal(decimal.RequireFromString("0.5")))

	assert.Equal(t, "tx-confirmed", fundings[1].txID)
	assert.Equal(t, int64(3), fundings[1].confirmations)
	assert.True(t, fundings[1].amount.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, time.Unix(1700000000, 0), fundings[1].blockTime)
}

func TestClassify(t *testing.T) {
	now := time.Now()
	total := decimal.RequireFromString("1.0")
	hash := "tx-1"

	confirmedFunding := func(amount string, age time.Duration) funding {
		return funding{
			txID:          "tx-1",
			amount:        decimal.RequireFromString(amount),
			confirmations: 6,
			blockTime:     now.Add(-age),
		}
	}
	pendingFunding := func(amount string) funding {
		return funding{txID: "tx-1", amount: decimal.RequireFromString(amount)}
	}

	tests := []struct {
		name            string
		fundings        []funding
		txHash          *string
		expectedOutcome chainrpc.Outcome
		expectedTxHash  string
		expectedAmount  string
	}{
		{
			name:            "no transactions at all",
			fundings:        nil,
			txHash:          &hash,
			expectedOutcome: chainrpc.OutcomeNoHash,
		},
		{
			name:            "pending balance below confirmation threshold",
			fundings:        []funding{pendingFunding("1.0")},
			txHash:          nil,
			expectedOutcome: chainrpc.OutcomeUnconfirmed,
			expectedTxHash:  "tx-1",
		},
		{
			name:            "confirmed full payment with saved hash",
			fundings:        []funding{confirmedFunding("1.0", 48*time.Hour)},
			txHash:          &hash,
			expectedOutcome: chainrpc.OutcomeConfirmed,
			expectedAmount:  "1",
		},
		{
			name:            "confirmed overpayment",
			fundings:        []funding{confirmedFunding("1.2", time.Minute)},
			txHash:          &hash,
			expectedOutcome: chainrpc.OutcomeConfirmed,
			expectedAmount:  "1.2",
		},
		{
			name:            "confirmed balance without hash inside grace window",
			fundings:        []funding{confirmedFunding("1.0", 5*time.Minute)},
			txHash:          nil,
			expectedOutcome: chainrpc.OutcomeConfirmed,
			expectedAmount:  "1",
		},
		{
			name:            "confirmed balance without hash outside grace window",
			fundings:        []funding{confirmedFunding("1.0", time.Hour)},
			txHash:          nil,
			expectedOutcome: chainrpc.OutcomeNoHash,
		},
		{
			name:            "confirmed underpayment",
			fundings:        []funding{confirmedFunding("0.97", time.Minute)},
			txHash:          &hash,
			expectedOutcome: chainrpc.OutcomeUnderpaid,
			expectedAmount:  "0.03",
		},
		{
			name: "partial confirmation with remainder still pending",
			fundings: []funding{
				pendingFunding("0.5"),
				confirmedFunding("0.5", time.Minute),
			},
			txHash:          &hash,
			expectedOutcome: chainrpc.OutcomeUnconfirmed,
			expectedTxHash:  "tx-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classify(tt.fundings, total, 3, 20, tt.txHash, now)

			assert.Equal(t, tt.expectedOutcome, result.Outcome)
			if tt.expectedTxHash != "" {
				assert.Equal(t, tt.expectedTxHash, result.TxHash)
			}
			if tt.expectedAmount != "" {
				assert.True(t, result.Amount.Equal(decimal.RequireFromString(tt.expectedAmount)),
					"amount = %s, want %s", result.Amount, tt.expectedAmount)
			}
		})
	}
}

func TestNetworkParams(t *testing.T) {
	assert.Equal(t, "mainnet", networkParams("").Name)
	assert.Equal(t, "mainnet", networkParams("mainnet").Name)
	assert.Equal(t, "testnet3", networkParams("testnet").Name)
	assert.Equal(t, "regtest", networkParams("regtest").Name)
}
