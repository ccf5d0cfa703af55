// Package store defines the plain serializable records the persistence
// collaborator consumes, and the LedgerStore port it fulfils. The bookkeeping
// core never reads or writes storage directly.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// AccountRecord is the serializable form of an account. The balance travels
// as its canonical decimal string.
type AccountRecord struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	NormalBalance string    `json:"normal_balance"`
	Balance       string    `json:"balance"`
	IsControl     bool      `json:"is_control"`
	IsRecoverable bool      `json:"is_recoverable"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LineRecord is the serializable form of a transaction line.
type LineRecord struct {
	ID             uuid.UUID `json:"id"`
	AccountID      uuid.UUID `json:"account_id"`
	Amount         string    `json:"amount"`
	IsDebit        bool      `json:"is_debit"`
	ReversalOfLine uuid.UUID `json:"reversal_of_line,omitempty"`
}

// TransactionRecord is the serializable form of a transaction.
type TransactionRecord struct {
	ID          uuid.UUID    `json:"id"`
	EntityID    uuid.UUID    `json:"entity_id"`
	Date        time.Time    `json:"date"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	ReversalOf  uuid.UUID    `json:"reversal_of,omitempty"`
	Lines       []LineRecord `json:"lines"`
	CreatedAt   time.Time    `json:"created_at"`
}

// JournalRecord is the serializable form of a journal. Transactions are
// referenced by id; the snapshot's transaction list carries the bodies.
type JournalRecord struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	EntityID       uuid.UUID   `json:"entity_id"`
	TransactionIDs []uuid.UUID `json:"transaction_ids"`
}

// LedgerSnapshot captures one entity's full ledger state as plain records.
type LedgerSnapshot struct {
	EntityID     uuid.UUID           `json:"entity_id"`
	Accounts     []AccountRecord     `json:"accounts"`
	Journals     []JournalRecord     `json:"journals"`
	Transactions []TransactionRecord `json:"transactions"`
	TakenAt      time.Time           `json:"taken_at"`
}

// LedgerStore abstracts durability for ledger snapshots and posted history.
type LedgerStore interface {
	SaveSnapshot(ctx context.Context, snap LedgerSnapshot) error
	LoadSnapshot(ctx context.Context, entityID uuid.UUID) (LedgerSnapshot, error)
	SaveTransaction(ctx context.Context, rec TransactionRecord) error
	ListTransactions(ctx context.Context, entityID uuid.UUID) ([]TransactionRecord, error)
	ListEntities(ctx context.Context) ([]uuid.UUID, error)
}
