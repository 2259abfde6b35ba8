package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/crypto-payment-backend/internal/model"
)

// DetailResponse is the public view of one payment, including the
// wallet-facing fields rendered from the backend policy.
type DetailResponse struct {
	ID               uuid.UUID           `json:"id"`
	Currency         string              `json:"currency"`
	Address          string              `json:"address"`
	CryptoAmount     decimal.Decimal     `json:"crypto_amount"`
	PaidCryptoAmount decimal.NullDecimal `json:"paid_crypto_amount"`
	FiatAmount       decimal.Decimal     `json:"fiat_amount"`
	FiatCurrency     string              `json:"fiat_currency"`
	Status           model.PaymentStatus `json:"status"`
	TxHash           *string             `json:"tx_hash"`
	ChildPaymentID   *uuid.UUID          `json:"child_payment_id"`
	CreatedAt        time.Time           `json:"created_at"`

	// AddressValidity is when the unpaid address expires and the expiry
	// sweep becomes eligible to cancel the payment.
	AddressValidity time.Time `json:"address_validity"`

	PaymentURI  string `json:"payment_uri"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
