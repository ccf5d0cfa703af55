package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

// Journal is a named, entity-scoped ordered collection of accepted
// transactions. It gatekeeps entity consistency and balance; it never
// touches account balances.
type Journal struct {
	ID       uuid.UUID
	Name     string
	EntityID uuid.UUID

	eng dec.Engine
	txs []*Transaction
	ids map[uuid.UUID]struct{}
}

// NewJournal constructs an empty journal.
func NewJournal(prov *dec.Provider, id uuid.UUID, name string, entityID uuid.UUID) (*Journal, error) {
	eng, err := prov.Engine()
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: journal id", ErrMissingField)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: journal name", ErrMissingField)
	}
	if entityID == uuid.Nil {
		return nil, fmt.Errorf("%w: journal entity id", ErrMissingField)
	}
	return &Journal{
		ID:       id,
		Name:     name,
		EntityID: entityID,
		eng:      eng,
		ids:      make(map[uuid.UUID]struct{}),
	}, nil
}

// AddTransaction appends a transaction after checking entity consistency,
// balance, and id uniqueness. Rejection is an expected outcome; callers
// branch on the sentinel.
func (j *Journal) AddTransaction(tx *Transaction) error {
	if tx.EntityID != j.EntityID {
		return fmt.Errorf("%w: transaction %s", ErrEntityMismatch, tx.ID)
	}
	if !tx.IsBalanced() {
		return fmt.Errorf("%w: transaction %s", ErrUnbalanced, tx.ID)
	}
	if _, exists := j.ids[tx.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.ID)
	}
	j.txs = append(j.txs, tx)
	j.ids[tx.ID] = struct{}{}
	return nil
}

// RemoveTransaction removes by id and reports whether a removal occurred.
func (j *Journal) RemoveTransaction(id uuid.UUID) bool {
	for i, tx := range j.txs {
		if tx.ID == id {
			j.txs = append(j.txs[:i], j.txs[i+1:]...)
			delete(j.ids, id)
			return true
		}
	}
	return false
}

// Transactions returns a copy of the ordered accepted transactions.
func (j *Journal) Transactions() []*Transaction {
	out := make([]*Transaction, len(j.txs))
	copy(out, j.txs)
	return out
}

// TransactionsByDateRange returns transactions dated inside [start, end],
// inclusive of both boundary dates at day granularity.
func (j *Journal) TransactionsByDateRange(start, end time.Time) []*Transaction {
	from := startOfDay(start)
	to := endOfDay(end)
	var out []*Transaction
	for _, tx := range j.txs {
		if !tx.Date.Before(from) && !tx.Date.After(to) {
			out = append(out, tx)
		}
	}
	return out
}

// TotalDebits sums debit amounts across held transactions, optionally
// restricted to posted ones. Accumulation is decimal, never floating point.
func (j *Journal) TotalDebits(onlyPosted bool) dec.Value {
	sum := j.eng.Zero()
	for _, tx := range j.txs {
		if onlyPosted && tx.Status() != StatusPosted {
			continue
		}
		sum = sum.Add(tx.TotalDebits())
	}
	return sum
}

// TotalCredits mirrors TotalDebits for the credit side.
func (j *Journal) TotalCredits(onlyPosted bool) dec.Value {
	sum := j.eng.Zero()
	for _, tx := range j.txs {
		if onlyPosted && tx.Status() != StatusPosted {
			continue
		}
		sum = sum.Add(tx.TotalCredits())
	}
	return sum
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
