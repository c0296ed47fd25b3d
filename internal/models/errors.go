package models

import "errors"

// Domain errors. Every failure in the core is one of these sentinels,
// returned to the caller and mapped to a user-facing message or HTTP
// status by the outer layer; none is fatal.
var (
	// ErrInvalidAmount rejects deposits and withdrawals of a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds rejects a withdrawal larger than the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWithdrawalLimitExceeded rejects a withdrawal above the policy's
	// per-transaction ceiling.
	ErrWithdrawalLimitExceeded = errors.New("amount exceeds withdrawal limit")

	// ErrWithdrawalCapReached rejects a withdrawal once the account's history
	// already holds the maximum number of withdrawals the policy permits.
	ErrWithdrawalCapReached = errors.New("withdrawal cap reached")

	// ErrAccountNotOwned rejects a transaction whose target account does not
	// belong to the initiating customer.
	ErrAccountNotOwned = errors.New("account does not belong to customer")

	// ErrInvalidParameters rejects account creation with non-positive
	// withdrawal policy values.
	ErrInvalidParameters = errors.New("invalid account parameters")

	// ErrTransactionApplied rejects reuse of an already-applied transaction.
	ErrTransactionApplied = errors.New("transaction already applied")

	// ErrUnknownTransactionKind rejects a transaction with a kind tag the
	// ledger does not recognize.
	ErrUnknownTransactionKind = errors.New("unknown transaction kind")

	// ErrInvalidCustomerID rejects a customer id that is not an 11-digit CPF.
	ErrInvalidCustomerID = errors.New("customer id must be 11 digits")

	// ErrCustomerExists rejects registration of an already-known CPF.
	ErrCustomerExists = errors.New("customer already registered")

	ErrCustomerNotFound = errors.New("customer not found")
	ErrAccountNotFound  = errors.New("account not found")
)
