package chainrpc

import (
	"github.com/shopspring/decimal"
)

// Outcome classifies what a chain backend observed for a payment address.
type Outcome string

const (
	// OutcomeNoHash means no funds were observed for the address yet.
	OutcomeNoHash Outcome = "no_hash"
	// OutcomeUnconfirmed means a balance was observed below the required
	// confirmation count.
	OutcomeUnconfirmed Outcome = "unconfirmed"
	// OutcomeConfirmed means the full requested amount is confirmed.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeUnderpaid means a confirmed balance below the requested amount.
	OutcomeUnderpaid Outcome = "underpaid"
	// OutcomeUnrecognized is anything the adapter could not classify.
	OutcomeUnrecognized Outcome = "unrecognized"
)

// ConfirmResult is the outcome of one address confirmation check.
// TxHash is set for unconfirmed balances. Amount is the received total
// for confirmed balances and the remaining shortfall for underpaid ones.
type ConfirmResult struct {
	Outcome Outcome
	TxHash  string
	Amount  decimal.Decimal
}

// IChainRpc is the capability a chain backend must expose for payments
// to be reconciled against it.
type IChainRpc interface {
	// ConfirmAddressPayment checks the on-chain state of an address
	// against the requested amount. A confirmed balance with no matching
	// tx hash is only accepted within acceptConfirmedBalWithoutHashMins.
	ConfirmAddressPayment(address string, totalCryptoAmount decimal.Decimal, confirmationNumber int, acceptConfirmedBalWithoutHashMins int, txHash *string) (*ConfirmResult, error)

	// ConvertToFiat converts a crypto amount into the given fiat currency.
	ConvertToFiat(amount decimal.Decimal, fiatCurrency string) (decimal.Decimal, error)

	// ConvertFromFiat converts a fiat amount into the chain's currency.
	ConvertFromFiat(fiatAmount decimal.Decimal, fiatCurrency string) (decimal.Decimal, error)

	// DeriveAddress derives a fresh receiving address from the backend's
	// master public key at the given index.
	DeriveAddress(index uint32) (string, error)

	// PaymentURI renders the wallet-openable URI for an address and amount.
	PaymentURI(address string, amount decimal.Decimal) string
}
