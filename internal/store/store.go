package store

import (
	"github.com/dwarvesf/crypto-payment-backend/internal/store/payment"
)

type Store struct {
	Payment payment.IStore
}

func New() *Store {
	return &Store{
		Payment: payment.New(),
	}
}
