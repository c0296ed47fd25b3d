package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryEntry is one immutable record in an account's history. Entries
// exist only for transactions that were actually applied to the balance,
// and RecordedAt is the moment of recording, not of construction.
type HistoryEntry struct {
	ID            string          `json:"id"`
	AccountNumber int64           `json:"account_number"`
	Kind          Kind            `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	RecordedAt    time.Time       `json:"recorded_at"`
}
