package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dwarvesf/crypto-payment-backend/internal/model"
)

type IStore interface {
	Create(db *gorm.DB, payment *model.Payment) (*model.Payment, error)
	GetByID(db *gorm.DB, id uuid.UUID) (*model.Payment, error)
	CountByCurrency(db *gorm.DB, currency string) (int64, error)

	// ListForStatusUpdate selects the payments the status-update sweep
	// checks on chain: reconcilable payments created after createdAfter,
	// plus processing payments that already have a tx hash regardless of
	// age. Ordered by tx hash, nulls first.
	ListForStatusUpdate(db *gorm.DB, currency string, createdAfter time.Time) ([]model.Payment, error)

	// ListUnpaidCreatedBefore selects new/wait payments older than cutoff.
	ListUnpaidCreatedBefore(db *gorm.DB, currency string, cutoff time.Time) ([]model.Payment, error)

	// ListStalePriceBefore selects new/wait payments whose conversion
	// rate has not been refreshed since cutoff.
	ListStalePriceBefore(db *gorm.DB, currency string, cutoff time.Time) ([]model.Payment, error)

	// UpdateGuarded persists the payment's mutated fields only if its
	// status and updated_at still match what the sweep read. Returns
	// ErrPaymentStale when another run got there first.
	UpdateGuarded(db *gorm.DB, payment *model.Payment, prevStatus model.PaymentStatus, prevUpdatedAt time.Time) error

	// CreateChildAndMarkPaid atomically creates the child payment for an
	// underpaid remainder, links it to the parent, and persists the
	// parent's transition to paid.
	CreateChildAndMarkPaid(db *gorm.DB, parent *model.Payment, child *model.Payment, prevStatus model.PaymentStatus, prevUpdatedAt time.Time) (*model.Payment, error)
}
