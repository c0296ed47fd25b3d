package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/models"
)

// TransactionRecorded is emitted after a transaction has been applied to
// an account and written to its history.
type TransactionRecorded struct {
	TransactionID string          `json:"transaction_id"`
	AccountNumber int64           `json:"account_number"`
	Kind          models.Kind     `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
