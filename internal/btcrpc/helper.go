package btcrpc

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/crypto-payment-backend/internal/btcrpc/blockstream"
	"github.com/dwarvesf/crypto-payment-backend/internal/chainrpc"
)

const btcDecimalPlaces = 8

var satoshisPerBtc = decimal.New(1, btcDecimalPlaces)

// funding is one transaction paying the watched address.
type funding struct {
	txID          string
	amount        decimal.Decimal
	confirmations int64
	blockTime     time.Time
}

func fundingsFromTxs(txs []blockstream.AddressTx, address string, tipHeight int64) []funding {
	fundings := []funding{}
	for _, tx := range txs {
		received := tx.ReceivedByAddress(address)
		if received == 0 {
			// spends from the address, not payments to it
			continue
		}

		f := funding{
			txID:   tx.TxID,
			amount: decimal.NewFromInt(received).Div(satoshisPerBtc),
		}
		if tx.Status.Confirmed {
			f.confirmations = tipHeight - tx.Status.BlockHeight + 1
			f.blockTime = time.Unix(tx.Status.BlockTime, 0)
		}
		fundings = append(fundings, f)
	}
	return fundings
}

// classify turns the funding set of an address into exactly one payment
// outcome. fundings must be ordered newest first.
func classify(fundings []funding, total decimal.Decimal, confirmationNumber int, acceptConfirmedBalWithoutHashMins int, txHash *string, now time.Time) *chainrpc.ConfirmResult {
	if len(fundings) == 0 {
		return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeNoHash}
	}

	confirmedTotal := decimal.Zero
	pendingTotal := decimal.Zero
	var latestConfirmed *funding

	for i := range fundings {
		f := fundings[i]
		if f.confirmations >= int64(confirmationNumber) {
			confirmedTotal = confirmedTotal.Add(f.amount)
			if latestConfirmed == nil {
				latestConfirmed = &fundings[i]
			}
		} else {
			pendingTotal = pendingTotal.Add(f.amount)
		}
	}

	if confirmedTotal.GreaterThanOrEqual(total) {
		// A confirmed balance we never saw a hash for is only trusted
		// while it is fresh; an old one is likely a reused address.
		if txHash == nil {
			grace := time.Duration(acceptConfirmedBalWithoutHashMins) * time.Minute
			if latestConfirmed == nil || now.Sub(latestConfirmed.blockTime) > grace {
				return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeNoHash}
			}
		}
		return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeConfirmed, Amount: confirmedTotal}
	}

	if pendingTotal.GreaterThan(decimal.Zero) {
		return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeUnconfirmed, TxHash: fundings[0].txID}
	}

	if confirmedTotal.GreaterThan(decimal.Zero) {
		return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeUnderpaid, Amount: total.Sub(confirmedTotal)}
	}

	return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeNoHash}
}

func networkParams(network string) *chaincfg.Params {
	switch network {
	case "testnet":
		return &chaincfg.TestNet3Params
	case "regtest":
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}
