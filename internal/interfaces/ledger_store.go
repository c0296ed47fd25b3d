package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/models"
)

// LedgerStore holds customers, accounts and per-account history. The
// store is dumb storage: all business rules and per-account locking live
// in the ledger, which calls these methods inside its critical sections.
//
// History is append-only by construction: the interface carries no way
// to update or remove an entry, and reads return snapshot copies.
type LedgerStore interface {
	SaveCustomer(ctx context.Context, c models.Customer) error
	CustomerByID(id string) (models.Customer, error)

	// NextAccountNumber hands out sequential account numbers starting at 1.
	NextAccountNumber(ctx context.Context) (int64, error)
	SaveAccount(ctx context.Context, a models.Account) error
	AccountByNumber(number int64) (models.Account, error)
	// AccountsByCustomer returns the customer's accounts ordered by number,
	// which is opening order.
	AccountsByCustomer(customerID string) ([]models.Account, error)

	TransactionExists(id string) (bool, error)
	// SaveTransactionWithEntry persists one applied transaction: the
	// transaction record, the account's new balance and the history entry
	// land as a single atomic write set, or not at all. This is what keeps
	// "recorded iff applied" true even when a write fails midway.
	SaveTransactionWithEntry(ctx context.Context, tx models.Transaction, entry models.HistoryEntry, balance decimal.Decimal) error

	EntriesByAccount(number int64) ([]models.HistoryEntry, error)
}
