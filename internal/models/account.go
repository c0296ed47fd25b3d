package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBranch is the fixed branch code assigned to every account.
const DefaultBranch = "0001"

// Account is a single bank account. Balance never goes below zero; the
// ledger enforces that inside the account's critical section. CustomerID
// is set at creation and never changes.
type Account struct {
	Number     int64             `json:"number"`
	Branch     string            `json:"branch"`
	CustomerID string            `json:"customer_id"`
	Balance    decimal.Decimal   `json:"balance"`
	Policy     *WithdrawalPolicy `json:"policy,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// WithdrawalPolicy is the rule set that turns a plain account into a
// checking account: a ceiling on each withdrawal amount and a cap on how
// many withdrawals may ever be recorded against the account. Both values
// are immutable after the account is opened.
//
// Cap is counted over the account's full history, not per calendar day.
type WithdrawalPolicy struct {
	Limit decimal.Decimal `json:"withdrawal_limit"`
	Cap   int             `json:"daily_withdrawal_cap"`
}

// DefaultWithdrawalPolicy returns the standard checking account rules:
// at most 500 per withdrawal, at most 3 withdrawals recorded.
func DefaultWithdrawalPolicy() WithdrawalPolicy {
	return WithdrawalPolicy{
		Limit: decimal.NewFromInt(500),
		Cap:   3,
	}
}

// Validate rejects non-positive policy values.
func (p WithdrawalPolicy) Validate() error {
	if p.Limit.Cmp(decimal.Zero) <= 0 || p.Cap <= 0 {
		return ErrInvalidParameters
	}
	return nil
}
