package worker

// IWorker runs the periodic payment reconciliation sweeps. Each method
// covers exactly one backend; the scheduler fans out over the active
// backend codes.
type IWorker interface {
	// UpdatePaymentStatus checks the on-chain state of every open
	// payment of the backend and advances its status.
	UpdatePaymentStatus(backendCode string) error

	// CancelUnpaidPayments cancels new/wait payments older than the
	// backend's expiry window.
	CancelUnpaidPayments(backendCode string) error

	// RefreshPaymentPrices re-derives the crypto amount of unpaid
	// payments from their fiat amount at the current rate.
	RefreshPaymentPrices(backendCode string) error
}
