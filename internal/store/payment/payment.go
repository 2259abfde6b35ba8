package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dwarvesf/crypto-payment-backend/internal/model"
	pgstore "github.com/dwarvesf/crypto-payment-backend/internal/store/postgres"
)

// ErrPaymentStale means the guarded update matched no row: another sweep
// run already moved the payment past the state this run read.
var ErrPaymentStale = errors.New("payment was modified by a concurrent update")

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) Create(db *gorm.DB, payment *model.Payment) (*model.Payment, error) {
	return payment, db.Create(payment).Error
}

func (s *Store) GetByID(db *gorm.DB, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := db.Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *Store) CountByCurrency(db *gorm.DB, currency string) (int64, error) {
	var count int64
	err := db.Model(&model.Payment{}).Where("currency = ?", currency).Count(&count).Error
	return count, err
}

func (s *Store) ListForStatusUpdate(db *gorm.DB, currency string, createdAfter time.Time) ([]model.Payment, error) {
	var payments []model.Payment
	err := db.
		Where(
			"currency = ? AND ((status IN ? AND created_at >= ?) OR (status = ? AND tx_hash IS NOT NULL))",
			currency,
			model.ReconcilableStatuses,
			createdAfter,
			model.PaymentStatusProcessing,
		).
		Order("tx_hash ASC NULLS FIRST").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Store) ListUnpaidCreatedBefore(db *gorm.DB, currency string, cutoff time.Time) ([]model.Payment, error) {
	var payments []model.Payment
	err := db.
		Where("currency = ? AND status IN ? AND created_at <= ?", currency, model.UnpaidStatuses, cutoff).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Store) ListStalePriceBefore(db *gorm.DB, currency string, cutoff time.Time) ([]model.Payment, error) {
	var payments []model.Payment
	err := db.
		Where("currency = ? AND status IN ? AND updated_at <= ?", currency, model.UnpaidStatuses, cutoff).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Store) UpdateGuarded(db *gorm.DB, payment *model.Payment, prevStatus model.PaymentStatus, prevUpdatedAt time.Time) error {
	res := db.Model(&model.Payment{}).
		Where("id = ? AND status = ? AND updated_at = ?", payment.ID, prevStatus, prevUpdatedAt).
		Updates(map[string]interface{}{
			"status":             payment.Status,
			"tx_hash":            payment.TxHash,
			"crypto_amount":      payment.CryptoAmount,
			"paid_crypto_amount": payment.PaidCryptoAmount,
			"child_payment_id":   payment.ChildPaymentID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrPaymentStale, payment.ID.String())
	}
	return nil
}

func (s *Store) CreateChildAndMarkPaid(db *gorm.DB, parent *model.Payment, child *model.Payment, prevStatus model.PaymentStatus, prevUpdatedAt time.Time) (*model.Payment, error) {
	err := pgstore.DoInTx(db, func(tx *gorm.DB) error {
		if _, err := s.Create(tx, child); err != nil {
			return err
		}
		parent.ChildPaymentID = &child.ID
		parent.Status = model.PaymentStatusPaid
		return s.UpdateGuarded(tx, parent, prevStatus, prevUpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}
