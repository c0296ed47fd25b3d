package postgres

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/interfaces"
	"github.com/minibank/ledger/internal/models"
)

// PostgresLedgerStore is the durable implementation of interfaces.LedgerStore,
// for deployments that want state to survive restarts. Concurrency control
// still belongs to the ledger; this store only reads and writes rows.
//
// Expected schema:
//
//	customers(id text primary key, name text, birth_date text, address text, created_at timestamptz)
//	accounts(number bigint primary key, branch text, customer_id text references customers(id),
//	         balance numeric, withdrawal_limit numeric, withdrawal_cap int, created_at timestamptz)
//	transactions(id text primary key, account_number bigint, kind text, amount numeric, created_at timestamptz)
//	history_entries(seq bigserial primary key, id text unique, account_number bigint,
//	                kind text, amount numeric, recorded_at timestamptz)
//
// seq fixes insertion order: recorded_at alone cannot break ties between
// entries recorded in the same timestamp tick.
type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

func (p *PostgresLedgerStore) SaveCustomer(ctx context.Context, c models.Customer) error {
	const query = `INSERT INTO customers (id, name, birth_date, address, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO NOTHING`

	res, err := p.db.ExecContext(ctx, query, c.ID, c.Name, c.BirthDate, c.Address, c.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrCustomerExists
	}
	return nil
}

func (p *PostgresLedgerStore) CustomerByID(id string) (models.Customer, error) {
	const query = `SELECT id, name, birth_date, address, created_at FROM customers WHERE id = $1`

	var c models.Customer
	err := p.db.QueryRow(query, id).Scan(&c.ID, &c.Name, &c.BirthDate, &c.Address, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Customer{}, models.ErrCustomerNotFound
	}
	if err != nil {
		return models.Customer{}, err
	}
	return c, nil
}

// NextAccountNumber relies on the ledger serializing account creation;
// two concurrent calls would otherwise race on MAX(number).
func (p *PostgresLedgerStore) NextAccountNumber(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(MAX(number), 0) + 1 FROM accounts`

	var next int64
	if err := p.db.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (p *PostgresLedgerStore) SaveAccount(ctx context.Context, a models.Account) error {
	const query = `INSERT INTO accounts (number, branch, customer_id, balance, withdrawal_limit, withdrawal_cap, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var limit decimal.NullDecimal
	var cap sql.NullInt64
	if a.Policy != nil {
		limit = decimal.NullDecimal{Decimal: a.Policy.Limit, Valid: true}
		cap = sql.NullInt64{Int64: int64(a.Policy.Cap), Valid: true}
	}

	_, err := p.db.ExecContext(ctx, query, a.Number, a.Branch, a.CustomerID, a.Balance, limit, cap, a.CreatedAt)
	return err
}

func (p *PostgresLedgerStore) AccountByNumber(number int64) (models.Account, error) {
	const query = `SELECT number, branch, customer_id, balance, withdrawal_limit, withdrawal_cap, created_at
	FROM accounts WHERE number = $1`

	a, err := scanAccount(p.db.QueryRow(query, number))
	if err == sql.ErrNoRows {
		return models.Account{}, models.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return a, nil
}

func (p *PostgresLedgerStore) AccountsByCustomer(customerID string) ([]models.Account, error) {
	const query = `SELECT number, branch, customer_id, balance, withdrawal_limit, withdrawal_cap, created_at
	FROM accounts WHERE customer_id = $1 ORDER BY number`

	rows, err := p.db.Query(query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *PostgresLedgerStore) TransactionExists(id string) (bool, error) {
	const query = `SELECT 1 FROM transactions WHERE id = $1 LIMIT 1`

	var exists int
	err := p.db.QueryRow(query, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveTransactionWithEntry wraps the apply write set in one database
// transaction: either the transaction record, the balance update and the
// history entry all commit, or everything rolls back.
func (p *PostgresLedgerStore) SaveTransactionWithEntry(ctx context.Context, tx models.Transaction, entry models.HistoryEntry, balance decimal.Decimal) error {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = saveTransaction(ctx, dbTx, tx, entry.AccountNumber); err != nil {
		return err
	}
	if err = updateBalance(ctx, dbTx, entry.AccountNumber, balance); err != nil {
		return err
	}
	if err = appendEntry(ctx, dbTx, entry); err != nil {
		return err
	}

	err = dbTx.Commit()
	return err
}

func saveTransaction(ctx context.Context, dbTx *sql.Tx, tx models.Transaction, accountNumber int64) error {
	const query = `INSERT INTO transactions (id, account_number, kind, amount, created_at)
	VALUES ($1, $2, $3, $4, $5)`

	_, err := dbTx.ExecContext(ctx, query, tx.ID, accountNumber, string(tx.Kind), tx.Amount, tx.CreatedAt)
	return err
}

func updateBalance(ctx context.Context, dbTx *sql.Tx, number int64, balance decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = $2 WHERE number = $1`

	res, err := dbTx.ExecContext(ctx, query, number, balance)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

func appendEntry(ctx context.Context, dbTx *sql.Tx, entry models.HistoryEntry) error {
	const query = `INSERT INTO history_entries (id, account_number, kind, amount, recorded_at)
	VALUES ($1, $2, $3, $4, $5)`

	_, err := dbTx.ExecContext(ctx, query, entry.ID, entry.AccountNumber, string(entry.Kind), entry.Amount, entry.RecordedAt)
	return err
}

func (p *PostgresLedgerStore) EntriesByAccount(number int64) ([]models.HistoryEntry, error) {
	const query = `SELECT id, account_number, kind, amount, recorded_at
	FROM history_entries WHERE account_number = $1 ORDER BY seq`

	rows, err := p.db.Query(query, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.AccountNumber, &kind, &e.Amount, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Kind = models.Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var a models.Account
	var limit decimal.NullDecimal
	var cap sql.NullInt64

	err := row.Scan(&a.Number, &a.Branch, &a.CustomerID, &a.Balance, &limit, &cap, &a.CreatedAt)
	if err != nil {
		return models.Account{}, err
	}
	if limit.Valid && cap.Valid {
		a.Policy = &models.WithdrawalPolicy{Limit: limit.Decimal, Cap: int(cap.Int64)}
	}
	return a, nil
}

// Compile-time check: PostgresLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
