package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

// Account models a chart of accounts node. Identity fields are immutable
// after construction; the running balance is unexported and only reachable
// through ApplyPosting and ResetBalance.
type Account struct {
	ID     uuid.UUID
	Code   string
	Name   string
	Type   AccountType
	Normal NormalBalance
	// IsControl marks a control account; descriptive metadata only.
	IsControl bool
	// IsRecoverable marks recoverable-expense accounts; descriptive only.
	IsRecoverable bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	balance dec.Value
}

// AccountInput groups fields required to create an account.
type AccountInput struct {
	ID            uuid.UUID
	Code          string
	Name          string
	Type          AccountType
	Normal        NormalBalance
	IsControl     bool
	IsRecoverable bool
}

// NewAccount constructs an active account with a zero balance. The normal
// balance is required; there is no inference from the account type.
func NewAccount(prov *dec.Provider, in AccountInput) (*Account, error) {
	eng, err := prov.Engine()
	if err != nil {
		return nil, err
	}
	if in.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: account id", ErrMissingField)
	}
	if in.Code == "" {
		return nil, fmt.Errorf("%w: account code", ErrMissingField)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: account name", ErrMissingField)
	}
	if !validAccountType(in.Type) {
		return nil, fmt.Errorf("%w: account type %q", ErrMissingField, in.Type)
	}
	if in.Normal != NormalDebit && in.Normal != NormalCredit {
		return nil, fmt.Errorf("%w: normal balance", ErrMissingField)
	}
	now := time.Now().UTC()
	return &Account{
		ID:            in.ID,
		Code:          in.Code,
		Name:          in.Name,
		Type:          in.Type,
		Normal:        in.Normal,
		IsControl:     in.IsControl,
		IsRecoverable: in.IsRecoverable,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
		balance:       eng.Zero(),
	}, nil
}

// Balance returns the current running balance.
func (a *Account) Balance() dec.Value { return a.balance }

// IsDebitNormal reports whether the account grows on the debit side.
func (a *Account) IsDebitNormal() bool { return a.Normal == NormalDebit }

// IsCreditNormal reports whether the account grows on the credit side.
func (a *Account) IsCreditNormal() bool { return a.Normal == NormalCredit }

// ApplyPosting applies one line's effect to the balance. The amount is
// normalized to its absolute value; direction is carried by isDebit alone.
// This is the single place balance polarity is decided.
func (a *Account) ApplyPosting(amount dec.Value, isDebit bool) error {
	if !a.IsActive {
		return fmt.Errorf("%w: %s", ErrAccountInactive, a.ID)
	}
	amt := amount.Abs()
	increases := isDebit == a.IsDebitNormal()
	if increases {
		a.balance = a.balance.Add(amt)
	} else {
		a.balance = a.balance.Sub(amt)
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// ResetBalance sets the balance to exact zero. Period-close and test
// scenarios only; postings never call it.
func (a *Account) ResetBalance() {
	a.balance = a.balance.Sub(a.balance)
	a.UpdatedAt = time.Now().UTC()
}

// Deactivate stops further postings. Accounts are never destroyed.
func (a *Account) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now().UTC()
}

// Activate re-enables postings.
func (a *Account) Activate() {
	a.IsActive = true
	a.UpdatedAt = time.Now().UTC()
}
