package worker

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dwarvesf/crypto-payment-backend/internal/chainrpc"
	"github.com/dwarvesf/crypto-payment-backend/internal/model"
	"github.com/dwarvesf/crypto-payment-backend/internal/store"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

type Worker struct {
	db        *gorm.DB
	store     *store.Store
	appConfig *config.AppConfig
	logger    *logger.Logger
	registry  *chainrpc.Registry
}

func New(db *gorm.DB, store *store.Store, appConfig *config.AppConfig, logger *logger.Logger, registry *chainrpc.Registry) IWorker {
	return &Worker{
		db:        db,
		store:     store,
		appConfig: appConfig,
		logger:    logger,
		registry:  registry,
	}
}

func (w *Worker) UpdatePaymentStatus(backendCode string) error {
	w.logger.Info(fmt.Sprintf("[UpdatePaymentStatus] Start status sweep for backend %s...", backendCode))

	cfg, rpc, err := w.resolveBackend(backendCode)
	if err != nil {
		w.logger.Error("[UpdatePaymentStatus] failed to resolve backend", map[string]string{
			"backend": backendCode,
			"error":   err.Error(),
		})
		return err
	}

	// Payments past the expiry window are left to the cancel sweep,
	// unless a tx hash was already observed.
	window := time.Duration(cfg.CancelUnpaidPaymentHrs) * time.Hour
	payments, err := w.store.Payment.ListForStatusUpdate(w.db, cfg.Code, time.Now().Add(-window))
	if err != nil {
		w.logger.Error("[UpdatePaymentStatus][ListForStatusUpdate]", map[string]string{
			"backend": backendCode,
			"error":   err.Error(),
		})
		return err
	}

	if len(payments) == 0 {
		w.logger.Info(fmt.Sprintf("[UpdatePaymentStatus] No open payments for backend %s", backendCode))
		return nil
	}

	w.logger.Info(fmt.Sprintf("[UpdatePaymentStatus] Found %d open payments", len(payments)))

	for i := range payments {
		payment := payments[i]
		if err := w.reconcilePayment(&payment, cfg, rpc); err != nil {
			// one bad record never blocks the rest of the sweep
			w.logger.Error("[UpdatePaymentStatus] failed to reconcile payment", map[string]string{
				"payment_id": payment.ID.String(),
				"backend":    backendCode,
				"error":      err.Error(),
			})
		}
	}

	return nil
}

// reconcilePayment advances one payment from its on-chain state. The
// guarded save keys on the status and updated_at read before the
// adapter call, so overlapping sweep runs cannot double-apply a
// transition.
func (w *Worker) reconcilePayment(payment *model.Payment, cfg config.BackendConfig, rpc chainrpc.IChainRpc) error {
	prevStatus, prevUpdatedAt := payment.Status, payment.UpdatedAt

	result, err := rpc.ConfirmAddressPayment(
		payment.Address,
		payment.CryptoAmount,
		cfg.BalanceConfirmationNum,
		cfg.IgnoreConfirmedBalanceWithoutSavedHashMins,
		payment.TxHash,
	)
	if err != nil {
		return errors.Wrap(err, "failed to confirm address payment")
	}

	switch result.Outcome {
	case chainrpc.OutcomeNoHash:
		payment.Status = model.PaymentStatusWait
		payment.TxHash = nil
		return w.store.Payment.UpdateGuarded(w.db, payment, prevStatus, prevUpdatedAt)

	case chainrpc.OutcomeUnconfirmed:
		payment.Status = model.PaymentStatusProcessing
		if result.TxHash != "" {
			txHash := result.TxHash
			payment.TxHash = &txHash
		}

	case chainrpc.OutcomeConfirmed:
		payment.Status = model.PaymentStatusPaid
		payment.PaidCryptoAmount = decimal.NewNullDecimal(result.Amount)

	case chainrpc.OutcomeUnderpaid:
		return w.settleUnderpayment(payment, cfg, rpc, result.Amount, prevStatus, prevUpdatedAt)

	default:
		// an unparseable chain response is never treated as progress
		w.logger.Warn("[UpdatePaymentStatus] unrecognized adapter outcome, cancelling payment", map[string]string{
			"payment_id": payment.ID.String(),
			"backend":    cfg.Code,
			"outcome":    string(result.Outcome),
		})
		payment.Status = model.PaymentStatusCancelled
	}

	return w.store.Payment.UpdateGuarded(w.db, payment, prevStatus, prevUpdatedAt)
}

// settleUnderpayment resolves a confirmed balance below the requested
// amount. remaining is the crypto shortfall reported by the adapter.
func (w *Worker) settleUnderpayment(payment *model.Payment, cfg config.BackendConfig, rpc chainrpc.IChainRpc, remaining decimal.Decimal, prevStatus model.PaymentStatus, prevUpdatedAt time.Time) error {
	received := payment.CryptoAmount.Sub(remaining)

	remainingFiat, err := rpc.ConvertToFiat(remaining, payment.FiatCurrency)
	if err != nil {
		return errors.Wrap(err, "failed to convert remaining amount to fiat")
	}

	threshold := decimal.NewFromFloat(cfg.IgnoreUnderpaymentAmount)
	if remainingFiat.LessThanOrEqual(threshold) {
		// dust forgiven
		payment.Status = model.PaymentStatusPaid
		payment.PaidCryptoAmount = decimal.NewNullDecimal(received)
		return w.store.Payment.UpdateGuarded(w.db, payment, prevStatus, prevUpdatedAt)
	}

	if !cfg.CreateNewUnderpaidPayment {
		// nothing is persisted here: the payment stays in its current
		// status and the shortfall waits for a manual decision
		w.logger.Warn("[UpdatePaymentStatus] underpaid payment left unresolved, child payments disabled", map[string]string{
			"payment_id":     payment.ID.String(),
			"backend":        cfg.Code,
			"remaining_fiat": remainingFiat.String(),
		})
		return nil
	}

	child, err := w.buildChildPayment(payment, cfg, rpc, remainingFiat)
	if err != nil {
		return err
	}

	payment.PaidCryptoAmount = decimal.NewNullDecimal(received)
	if _, err := w.store.Payment.CreateChildAndMarkPaid(w.db, payment, child, prevStatus, prevUpdatedAt); err != nil {
		return errors.Wrap(err, "failed to create child payment")
	}

	w.logger.Info(fmt.Sprintf("[UpdatePaymentStatus] created child payment %s for underpaid payment %s", child.ID, payment.ID))
	return nil
}

func (w *Worker) buildChildPayment(parent *model.Payment, cfg config.BackendConfig, rpc chainrpc.IChainRpc, remainingFiat decimal.Decimal) (*model.Payment, error) {
	childCrypto, err := rpc.ConvertFromFiat(remainingFiat, parent.FiatCurrency)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert remaining fiat amount")
	}

	index, err := w.store.Payment.CountByCurrency(w.db, cfg.Code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count payments for address derivation")
	}

	address := parent.Address
	if !cfg.ReuseAddress {
		address, err = rpc.DeriveAddress(uint32(index))
		if err != nil {
			return nil, errors.Wrap(err, "failed to derive child address")
		}
	}

	return &model.Payment{
		Currency:     cfg.Code,
		Address:      address,
		CryptoAmount: childCrypto,
		FiatAmount:   remainingFiat,
		FiatCurrency: parent.FiatCurrency,
		Status:       model.PaymentStatusNew,
		UserID:       parent.UserID,
	}, nil
}

func (w *Worker) CancelUnpaidPayments(backendCode string) error {
	w.logger.Info(fmt.Sprintf("[CancelUnpaidPayments] Start expiry sweep for backend %s...", backendCode))

	cfg, err := w.appConfig.Backend(backendCode)
	if err != nil {
		w.logger.Error("[CancelUnpaidPayments] failed to resolve backend", map[string]string{
			"backend": backendCode,
			"error":   err.Error(),
		})
		return err
	}

	cutoff := time.Now().Add(-time.Duration(cfg.CancelUnpaidPaymentHrs) * time.Hour)
	payments, err := w.store.Payment.ListUnpaidCreatedBefore(w.db, cfg.Code, cutoff)
	if err != nil {
		w.logger.Error("[CancelUnpaidPayments][ListUnpaidCreatedBefore]", map[string]string{
			"backend": backendCode,
			"error":   err.Error(),
		})
		return err
	}

	for i := range payments {
		payment := payments[i]
		prevStatus, prevUpdatedAt := payment.Status, payment.UpdatedAt

		payment.Status = model.PaymentStatusCancelled
		if err := w.store.Payment.UpdateGuarded(w.db, &payment, prevStatus, prevUpdatedAt); err != nil {
			w.logger.Error("[CancelUnpaidPayments] failed to cancel payment", map[string]string{
				"payment_id": payment.ID.String(),
				"backend":    backendCode,
				"error":      err.Error(),
			})
		}
	}

	return nil
}

func (w *Worker) RefreshPaymentPrices(backendCode string) error {
	w.logger.Info(fmt.Sprintf("[RefreshPaymentPrices] Start price refresh for backend %s...", backendCode))

	cfg, rpc, err := w.resolveBackend(backendCode)
	if err != nil {
		w.logger.Error("[RefreshPaymentPrices] failed to resolve backend", map[string]string{
			"backend": backendCode,
			"error":   err.Error(),
		})
		return err
	}

	cutoff := time.Now().Add(-time.Duration(cfg.RefreshPriceAfterMinute) * time.Minute)
	payments, err := w.store.Payment.ListStalePriceBefore(w.db, cfg.Code, cutoff)
	if err != nil {
		w.logger.Error("[RefreshPaymentPrices][ListStalePriceBefore]", map[string]string{
			"backend": backendCode,
			"error":   err.Error(),
		})
		return err
	}

	for i := range payments {
		payment := payments[i]
		prevStatus, prevUpdatedAt := payment.Status, payment.UpdatedAt

		cryptoAmount, err := rpc.ConvertFromFiat(payment.FiatAmount, payment.FiatCurrency)
		if err != nil {
			w.logger.Error("[RefreshPaymentPrices] failed to convert fiat amount", map[string]string{
				"payment_id": payment.ID.String(),
				"backend":    backendCode,
				"error":      err.Error(),
			})
			continue
		}

		payment.CryptoAmount = cryptoAmount
		if err := w.store.Payment.UpdateGuarded(w.db, &payment, prevStatus, prevUpdatedAt); err != nil {
			w.logger.Error("[RefreshPaymentPrices] failed to save payment", map[string]string{
				"payment_id": payment.ID.String(),
				"backend":    backendCode,
				"error":      err.Error(),
			})
		}
	}

	return nil
}

func (w *Worker) resolveBackend(backendCode string) (config.BackendConfig, chainrpc.IChainRpc, error) {
	cfg, err := w.appConfig.Backend(backendCode)
	if err != nil {
		return config.BackendConfig{}, nil, err
	}

	rpc, err := w.registry.Get(backendCode)
	if err != nil {
		return config.BackendConfig{}, nil, err
	}

	return cfg, rpc, nil
}
