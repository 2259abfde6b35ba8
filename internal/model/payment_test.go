package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestPayment_Terminal(t *testing.T) {
	tests := []struct {
		name     string
		status   PaymentStatus
		expected bool
	}{
		{name: "new is not terminal", status: PaymentStatusNew, expected: false},
		{name: "wait is not terminal", status: PaymentStatusWait, expected: false},
		{name: "processing is not terminal", status: PaymentStatusProcessing, expected: false},
		{name: "paid is terminal", status: PaymentStatusPaid, expected: true},
		{name: "cancelled is terminal", status: PaymentStatusCancelled, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Payment{Status: tt.status}
			if got := p.Terminal(); got != tt.expected {
				t.Errorf("Terminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSweepStatusSets_ExcludeTerminal(t *testing.T) {
	for _, set := range [][]PaymentStatus{ReconcilableStatuses, UnpaidStatuses} {
		for _, status := range set {
			p := Payment{Status: status}
			if p.Terminal() {
				t.Errorf("sweep status set contains terminal status %q", status)
			}
		}
	}
}

func TestPayment_Anonymous(t *testing.T) {
	user := "user-1"

	p := Payment{}
	if !p.Anonymous() {
		t.Error("payment without a user should be anonymous")
	}

	p.UserID = &user
	if p.Anonymous() {
		t.Error("payment with a user should not be anonymous")
	}
}

func TestPayment_BeforeCreate(t *testing.T) {
	p := Payment{}
	if err := p.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate() error = %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("BeforeCreate() should assign an id")
	}

	assigned := uuid.New()
	p = Payment{ID: assigned}
	if err := p.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate() error = %v", err)
	}
	if p.ID != assigned {
		t.Error("BeforeCreate() should keep a pre-assigned id")
	}
}
