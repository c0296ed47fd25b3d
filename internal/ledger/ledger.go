package ledger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/interfaces"
	"github.com/minibank/ledger/internal/models"
	"github.com/minibank/ledger/internal/models/events"
)

// TopicTransactionRecorded is the event topic for successfully applied
// transactions.
const TopicTransactionRecorded = "transaction_recorded"

// Ledger is the core of the bank: it owns the business rules for opening
// accounts and applying transactions, and the locking that keeps them
// safe under concurrent callers.
//
// The unit of mutual exclusion is one account's (balance, history) pair.
// Every apply runs as a single critical section under that account's
// mutex, so a check-then-act (balance check, withdrawal count) can never
// interleave with another mutation of the same account. Operations on
// distinct accounts never contend.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher

	muMap map[int64]*sync.Mutex // one mutex per account number
	mapMu sync.Mutex            // protects muMap itself

	openMu sync.Mutex // serializes account-number assignment
}

// NewLedger wires the ledger to a storage implementation and an event
// publisher. Pass events.NoopPublisher when no broker is configured.
func NewLedger(store interfaces.LedgerStore, publisher interfaces.EventPublisher) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		muMap:     make(map[int64]*sync.Mutex),
	}
}

func (l *Ledger) accountLock(number int64) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[number]; !exists {
		l.muMap[number] = &sync.Mutex{}
	}
	return l.muMap[number]
}

// RegisterCustomer adds a new customer. The id must be an 11-digit CPF
// and must not already be registered.
func (l *Ledger) RegisterCustomer(ctx context.Context, c models.Customer) error {
	if err := c.ValidateID(); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return l.store.SaveCustomer(ctx, c)
}

// Customer looks a customer up by CPF.
func (l *Ledger) Customer(id string) (models.Customer, error) {
	return l.store.CustomerByID(id)
}

// OpenAccount creates an account bound to an existing customer and
// assigns it the next sequential number. A nil policy opens a plain
// account; a non-nil policy opens a checking account and must carry
// positive values.
func (l *Ledger) OpenAccount(ctx context.Context, customerID string, policy *models.WithdrawalPolicy) (models.Account, error) {
	if policy != nil {
		if err := policy.Validate(); err != nil {
			return models.Account{}, err
		}
	}
	if _, err := l.store.CustomerByID(customerID); err != nil {
		return models.Account{}, err
	}

	l.openMu.Lock()
	defer l.openMu.Unlock()

	number, err := l.store.NextAccountNumber(ctx)
	if err != nil {
		return models.Account{}, err
	}

	account := models.Account{
		Number:     number,
		Branch:     models.DefaultBranch,
		CustomerID: customerID,
		Balance:    decimal.Zero,
		CreatedAt:  time.Now(),
	}
	if policy != nil {
		p := *policy
		account.Policy = &p
	}

	if err := l.store.SaveAccount(ctx, account); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// Apply validates a transaction against an account and records it into
// the account's history, all inside the account's critical section.
//
// The gates run in this order: the transaction kind must be known, the
// customer must exist, the account must exist and belong to the customer,
// and the transaction must not have been applied before. Only then is the
// kind-specific rule evaluated. A history entry is written if and only if
// the balance mutation succeeded; on any failure nothing changes.
func (l *Ledger) Apply(ctx context.Context, customerID string, accountNumber int64, tx models.Transaction) error {
	if !tx.Kind.Valid() {
		return models.ErrUnknownTransactionKind
	}
	if _, err := l.store.CustomerByID(customerID); err != nil {
		return err
	}

	mu := l.accountLock(accountNumber)
	mu.Lock()
	event, err := l.applyLocked(ctx, customerID, accountNumber, tx)
	mu.Unlock()
	if err != nil {
		return err
	}

	// Best-effort: a broker hiccup must not fail an applied transaction.
	if err := l.publisher.Publish(TopicTransactionRecorded, event); err != nil {
		log.Printf("ledger: publish %s: %v", TopicTransactionRecorded, err)
	}
	return nil
}

func (l *Ledger) applyLocked(ctx context.Context, customerID string, accountNumber int64, tx models.Transaction) (events.TransactionRecorded, error) {
	account, err := l.store.AccountByNumber(accountNumber)
	if err != nil {
		return events.TransactionRecorded{}, err
	}

	// Ownership gate: only the owning customer may mutate the account.
	if account.CustomerID != customerID {
		return events.TransactionRecorded{}, models.ErrAccountNotOwned
	}

	// A transaction is consumed on success; it cannot be replayed.
	applied, err := l.store.TransactionExists(tx.ID)
	if err != nil {
		return events.TransactionRecorded{}, err
	}
	if applied {
		return events.TransactionRecorded{}, models.ErrTransactionApplied
	}

	var balance decimal.Decimal
	switch tx.Kind {
	case models.KindDeposit:
		balance, err = depositBalance(account, tx.Amount)
	case models.KindWithdrawal:
		balance, err = l.withdrawBalance(account, tx.Amount)
	default:
		err = models.ErrUnknownTransactionKind
	}
	if err != nil {
		return events.TransactionRecorded{}, err
	}

	entry := models.HistoryEntry{
		ID:            uuid.New().String(),
		AccountNumber: account.Number,
		Kind:          tx.Kind,
		Amount:        tx.Amount,
		RecordedAt:    time.Now(),
	}

	// One atomic write set: a store fault leaves no partial mutation, and
	// in particular never a consumed transaction ID without its effects.
	if err := l.store.SaveTransactionWithEntry(ctx, tx, entry, balance); err != nil {
		return events.TransactionRecorded{}, err
	}

	return events.TransactionRecorded{
		TransactionID: tx.ID,
		AccountNumber: account.Number,
		Kind:          tx.Kind,
		Amount:        tx.Amount,
		BalanceAfter:  balance,
		OccurredAt:    entry.RecordedAt,
	}, nil
}

// depositBalance applies the deposit rule: any positive amount, no upper
// bound. Returns the new balance.
func depositBalance(account models.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Cmp(decimal.Zero) <= 0 {
		return decimal.Zero, models.ErrInvalidAmount
	}
	return account.Balance.Add(amount), nil
}

// withdrawBalance applies the withdrawal rules. For an account with a
// policy the per-withdrawal ceiling is checked first, then the cap on
// recorded withdrawals, then the base rule (positive amount, sufficient
// funds). The order fixes which error the caller sees.
func (l *Ledger) withdrawBalance(account models.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if p := account.Policy; p != nil {
		if amount.GreaterThan(p.Limit) {
			return decimal.Zero, models.ErrWithdrawalLimitExceeded
		}
		count, err := l.recordedWithdrawals(account.Number)
		if err != nil {
			return decimal.Zero, err
		}
		if count >= p.Cap {
			return decimal.Zero, models.ErrWithdrawalCapReached
		}
	}

	if amount.Cmp(decimal.Zero) <= 0 {
		return decimal.Zero, models.ErrInvalidAmount
	}
	if amount.GreaterThan(account.Balance) {
		return decimal.Zero, models.ErrInsufficientFunds
	}
	return account.Balance.Sub(amount), nil
}

// recordedWithdrawals counts withdrawal entries over the account's full
// history. The cap is lifetime-scoped, not per calendar day.
func (l *Ledger) recordedWithdrawals(number int64) (int, error) {
	entries, err := l.store.EntriesByAccount(number)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.Kind == models.KindWithdrawal {
			count++
		}
	}
	return count, nil
}

// Balance returns the account's current balance.
func (l *Ledger) Balance(accountNumber int64) (decimal.Decimal, error) {
	account, err := l.store.AccountByNumber(accountNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Statement returns the account's history in chronological order. The
// slice is a snapshot; mutating it does not touch recorded state.
func (l *Ledger) Statement(accountNumber int64) ([]models.HistoryEntry, error) {
	if _, err := l.store.AccountByNumber(accountNumber); err != nil {
		return nil, err
	}
	return l.store.EntriesByAccount(accountNumber)
}

// Accounts lists a customer's accounts in opening order.
func (l *Ledger) Accounts(customerID string) ([]models.Account, error) {
	if _, err := l.store.CustomerByID(customerID); err != nil {
		return nil, err
	}
	return l.store.AccountsByCustomer(customerID)
}
