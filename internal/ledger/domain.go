// Package ledger implements the double-entry bookkeeping core: accounts,
// transactions, journals, and the per-entity ledger aggregate that owns them.
package ledger

import "errors"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

func validAccountType(t AccountType) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance is the side on which an account's balance is conventionally
// positive. It is always supplied explicitly, never inferred from the type.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// TransactionStatus enumerates transaction lifecycle values.
type TransactionStatus string

const (
	StatusDraft  TransactionStatus = "DRAFT"
	StatusPosted TransactionStatus = "POSTED"
	StatusVoid   TransactionStatus = "VOID"
)

var (
	// ErrMissingField indicates a required identity field is absent.
	ErrMissingField = errors.New("ledger: required field missing")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: transaction requires at least two lines")
	// ErrUnbalanced indicates debits != credits beyond tolerance.
	ErrUnbalanced = errors.New("ledger: transaction lines must balance")
	// ErrInvalidStatus indicates an illegal lifecycle transition or a
	// mutation attempted outside the permitted status.
	ErrInvalidStatus = errors.New("ledger: invalid status transition")
	// ErrInvalidAmount indicates an unparseable or non-finite line amount.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrDuplicateAccount indicates an account id collision.
	ErrDuplicateAccount = errors.New("ledger: duplicate account")
	// ErrDuplicateJournal indicates a journal id collision.
	ErrDuplicateJournal = errors.New("ledger: duplicate journal")
	// ErrDuplicateTransaction indicates a transaction id already accepted.
	ErrDuplicateTransaction = errors.New("ledger: duplicate transaction")
	// ErrEntityMismatch indicates the object belongs to another entity.
	ErrEntityMismatch = errors.New("ledger: entity mismatch")
	// ErrAccountNotFound indicates a line references an unknown account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrJournalNotFound indicates an unknown journal id.
	ErrJournalNotFound = errors.New("ledger: journal not found")
	// ErrTransactionNotFound indicates an unknown transaction id.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
	// ErrAccountInactive indicates a posting to a deactivated account.
	ErrAccountInactive = errors.New("ledger: account inactive")
)

// balanceTolerance is the fixed epsilon for balance checks: two line sums
// closer than one minor currency unit count as balanced.
const balanceTolerance = "0.01"
