package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/interfaces"
	"github.com/minibank/ledger/internal/models"
)

// MemoryLedgerStore is the in-memory implementation of interfaces.LedgerStore
// and the default backend: the reference system keeps all state in memory
// for the lifetime of the process.
//
// A single mutex guards every map and slice. Reads hand out copies so a
// caller can never reach back into the store and mutate recorded state.
type MemoryLedgerStore struct {
	mu           sync.RWMutex
	customers    map[string]models.Customer
	accounts     map[int64]models.Account
	transactions map[string]models.Transaction
	entries      map[int64][]models.HistoryEntry
	nextNumber   int64
}

// NewMemoryLedgerStore creates an empty store. Account numbering starts at 1.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		customers:    make(map[string]models.Customer),
		accounts:     make(map[int64]models.Account),
		transactions: make(map[string]models.Transaction),
		entries:      make(map[int64][]models.HistoryEntry),
	}
}

func (m *MemoryLedgerStore) SaveCustomer(ctx context.Context, c models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.customers[c.ID]; exists {
		return models.ErrCustomerExists
	}
	m.customers[c.ID] = c
	return nil
}

func (m *MemoryLedgerStore) CustomerByID(id string) (models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return models.Customer{}, models.ErrCustomerNotFound
	}
	return c, nil
}

func (m *MemoryLedgerStore) NextAccountNumber(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextNumber++
	return m.nextNumber, nil
}

func (m *MemoryLedgerStore) SaveAccount(ctx context.Context, a models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts[a.Number] = a
	return nil
}

func (m *MemoryLedgerStore) AccountByNumber(number int64) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[number]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}
	return a, nil
}

// AccountsByCustomer returns the customer's accounts ordered by number
// ascending, which is the order they were opened in.
func (m *MemoryLedgerStore) AccountsByCustomer(customerID string) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Account
	for n := int64(1); n <= m.nextNumber; n++ {
		if a, ok := m.accounts[n]; ok && a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryLedgerStore) TransactionExists(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.transactions[id]
	return exists, nil
}

// SaveTransactionWithEntry writes the apply set under one lock. The only
// failure mode is an unknown account, checked before anything is touched,
// so the write set is all-or-nothing.
func (m *MemoryLedgerStore) SaveTransactionWithEntry(ctx context.Context, tx models.Transaction, entry models.HistoryEntry, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[entry.AccountNumber]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.Balance = balance
	m.accounts[entry.AccountNumber] = a
	m.transactions[tx.ID] = tx
	m.entries[entry.AccountNumber] = append(m.entries[entry.AccountNumber], entry)
	return nil
}

// EntriesByAccount returns a copy of the account's history in insertion
// order, so external code can't modify the recorded entries.
func (m *MemoryLedgerStore) EntriesByAccount(number int64) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.entries[number]
	copied := make([]models.HistoryEntry, len(src))
	copy(copied, src)
	return copied, nil
}

// Compile-time check: MemoryLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
