package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusNew        PaymentStatus = "new"
	PaymentStatusWait       PaymentStatus = "wait"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// UnpaidStatuses are the states eligible for expiry and price refresh.
var UnpaidStatuses = []PaymentStatus{PaymentStatusNew, PaymentStatusWait}

// ReconcilableStatuses are the states the status-update sweep advances.
var ReconcilableStatuses = []PaymentStatus{PaymentStatusNew, PaymentStatusProcessing, PaymentStatusWait}

type Payment struct {
	ID       uuid.UUID `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	Currency string    `json:"currency" gorm:"column:currency;type:varchar(50);not null;index"`
	Address  string    `json:"address" gorm:"column:address;type:varchar(255);not null"`

	CryptoAmount     decimal.Decimal     `json:"crypto_amount" gorm:"column:crypto_amount;type:numeric(32,18);not null"`
	PaidCryptoAmount decimal.NullDecimal `json:"paid_crypto_amount" gorm:"column:paid_crypto_amount;type:numeric(32,18)"`
	FiatAmount       decimal.Decimal     `json:"fiat_amount" gorm:"column:fiat_amount;type:numeric(32,8);not null"`
	FiatCurrency     string              `json:"fiat_currency" gorm:"column:fiat_currency;type:varchar(10);not null"`

	Status PaymentStatus `json:"status" gorm:"column:status;type:varchar(50);not null;default:'new';index"`

	// TxHash is absent until a transaction is observed on chain. It is
	// cleared again only when the backend reports no funds at all.
	TxHash *string `json:"tx_hash" gorm:"column:tx_hash;type:varchar(255)"`

	// ChildPaymentID links the payment created for the unpaid remainder
	// of an underpaid payment. Set at most once.
	ChildPaymentID *uuid.UUID `json:"child_payment_id" gorm:"column:child_payment_id;type:uuid"`

	// UserID is nil for anonymous payments, which are gated per backend.
	UserID *string `json:"user_id" gorm:"column:user_id;type:varchar(255)"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;<-:create"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Terminal reports whether the payment has reached an absorbing state.
// Terminal payments are never selected by any sweep again.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusPaid || p.Status == PaymentStatusCancelled
}

// Anonymous reports whether the payment has no owning user.
func (p *Payment) Anonymous() bool {
	return p.UserID == nil
}
