package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind tags a transaction with the kind of monetary movement it describes.
type Kind string

const (
	KindDeposit    Kind = "Deposit"
	KindWithdrawal Kind = "Withdrawal"
)

// Valid reports whether the kind is one the ledger knows how to apply.
func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Transaction represents an intent to move money on a single account.
// Construction never fails, even for a non-positive amount; the ledger's
// apply step is the gate that validates it. Once applied, a transaction
// is consumed: applying the same ID a second time is rejected.
type Transaction struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewDeposit builds a deposit intent with a fresh ID.
func NewDeposit(amount decimal.Decimal) Transaction {
	return newTransaction(KindDeposit, amount)
}

// NewWithdrawal builds a withdrawal intent with a fresh ID.
func NewWithdrawal(amount decimal.Decimal) Transaction {
	return newTransaction(KindWithdrawal, amount)
}

func newTransaction(kind Kind, amount decimal.Decimal) Transaction {
	return Transaction{
		ID:        uuid.New().String(),
		Kind:      kind,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
}
