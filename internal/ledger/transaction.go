package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

// Line is one posting: an account reference, an absolute amount, and a
// debit/credit flag. Sign is carried exclusively by IsDebit, never by the
// magnitude.
type Line struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Amount    dec.Value
	IsDebit   bool
	// ReversalOfLine links a reversal line back to the line it negates.
	// uuid.Nil on ordinary lines. Lookup relation, not an object reference.
	ReversalOfLine uuid.UUID
}

// LineInput describes a transaction line for construction requests.
type LineInput struct {
	AccountID uuid.UUID
	Amount    string
	IsDebit   bool
}

// TransactionInput groups fields required to create a transaction.
type TransactionInput struct {
	ID          uuid.UUID
	EntityID    uuid.UUID
	Date        time.Time
	Description string
	Lines       []LineInput
}

// Transaction is an ordered collection of lines plus a lifecycle status.
// Once posted it is immutable except for the status transition to void.
type Transaction struct {
	ID          uuid.UUID
	EntityID    uuid.UUID
	Date        time.Time
	Description string
	// ReversalOf links a reversal back to the transaction it negates.
	ReversalOf uuid.UUID
	CreatedAt  time.Time

	eng    dec.Engine
	status TransactionStatus
	lines  []Line
}

// NewTransaction validates input and constructs a draft transaction. Line
// amounts are parsed into decimals and stored as absolute values regardless
// of input sign.
func NewTransaction(prov *dec.Provider, in TransactionInput) (*Transaction, error) {
	eng, err := prov.Engine()
	if err != nil {
		return nil, err
	}
	if in.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: transaction id", ErrMissingField)
	}
	if in.EntityID == uuid.Nil {
		return nil, fmt.Errorf("%w: entity id", ErrMissingField)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date", ErrMissingField)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description", ErrMissingField)
	}
	if len(in.Lines) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewLines, len(in.Lines))
	}
	tx := &Transaction{
		ID:          in.ID,
		EntityID:    in.EntityID,
		Date:        in.Date,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
		eng:         eng,
		status:      StatusDraft,
	}
	for _, line := range in.Lines {
		parsed, err := buildLine(eng, line)
		if err != nil {
			return nil, err
		}
		tx.lines = append(tx.lines, parsed)
	}
	return tx, nil
}

func buildLine(eng dec.Engine, in LineInput) (Line, error) {
	if in.AccountID == uuid.Nil {
		return Line{}, fmt.Errorf("%w: line account id", ErrMissingField)
	}
	amount, err := eng.Parse(in.Amount)
	if err != nil {
		return Line{}, fmt.Errorf("%w: %q", ErrInvalidAmount, in.Amount)
	}
	return Line{
		ID:        uuid.New(),
		AccountID: in.AccountID,
		Amount:    amount.Abs(),
		IsDebit:   in.IsDebit,
	}, nil
}

// Status returns the lifecycle status.
func (t *Transaction) Status() TransactionStatus { return t.status }

// Lines returns a copy of the ordered lines.
func (t *Transaction) Lines() []Line {
	out := make([]Line, len(t.lines))
	copy(out, t.lines)
	return out
}

// TotalDebits sums the debit line amounts.
func (t *Transaction) TotalDebits() dec.Value {
	sum := t.eng.Zero()
	for _, line := range t.lines {
		if line.IsDebit {
			sum = sum.Add(line.Amount)
		}
	}
	return sum
}

// TotalCredits sums the credit line amounts.
func (t *Transaction) TotalCredits() dec.Value {
	sum := t.eng.Zero()
	for _, line := range t.lines {
		if !line.IsDebit {
			sum = sum.Add(line.Amount)
		}
	}
	return sum
}

// IsBalanced reports whether |debits - credits| falls inside the fixed
// tolerance. Pure query, independent of status.
func (t *Transaction) IsBalanced() bool {
	diff := t.TotalDebits().Sub(t.TotalCredits()).Abs()
	tolerance, err := t.eng.Parse(balanceTolerance)
	if err != nil {
		return false
	}
	return diff.Cmp(tolerance) < 0
}

// AddLine appends a line. Draft transactions only.
func (t *Transaction) AddLine(in LineInput) error {
	if t.status != StatusDraft {
		return fmt.Errorf("%w: add line on %s transaction", ErrInvalidStatus, t.status)
	}
	line, err := buildLine(t.eng, in)
	if err != nil {
		return err
	}
	t.lines = append(t.lines, line)
	return nil
}

// RemoveLine removes a line by id and reports whether a removal occurred.
// Draft transactions only.
func (t *Transaction) RemoveLine(lineID uuid.UUID) (bool, error) {
	if t.status != StatusDraft {
		return false, fmt.Errorf("%w: remove line on %s transaction", ErrInvalidStatus, t.status)
	}
	for i, line := range t.lines {
		if line.ID == lineID {
			t.lines = append(t.lines[:i], t.lines[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Post transitions draft -> posted. Failing validation is an expected
// outcome reported through sentinel errors the caller branches on.
func (t *Transaction) Post() error {
	if t.status != StatusDraft {
		return fmt.Errorf("%w: post from %s", ErrInvalidStatus, t.status)
	}
	if len(t.lines) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewLines, len(t.lines))
	}
	if !t.IsBalanced() {
		return fmt.Errorf("%w: debits %s credits %s", ErrUnbalanced,
			t.TotalDebits().String(), t.TotalCredits().String())
	}
	t.status = StatusPosted
	return nil
}

// Void transitions posted -> void. Voiding only changes the status; balance
// reversal is achieved via CreateReversal.
func (t *Transaction) Void() error {
	if t.status != StatusPosted {
		return fmt.Errorf("%w: void from %s", ErrInvalidStatus, t.status)
	}
	t.status = StatusVoid
	return nil
}

// CreateReversal produces a fresh draft transaction whose lines copy the
// source's with the debit/credit flag flipped, with metadata linking each
// line and the transaction back to the original. The reversal goes through
// Post independently.
func (t *Transaction) CreateReversal(newID uuid.UUID, date time.Time, description string) (*Transaction, error) {
	if t.status != StatusPosted {
		return nil, fmt.Errorf("%w: reverse from %s", ErrInvalidStatus, t.status)
	}
	if newID == uuid.Nil {
		return nil, fmt.Errorf("%w: reversal id", ErrMissingField)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: reversal date", ErrMissingField)
	}
	if strings.TrimSpace(description) == "" {
		description = fmt.Sprintf("Reversal of %s", t.ID)
	}
	rev := &Transaction{
		ID:          newID,
		EntityID:    t.EntityID,
		Date:        date,
		Description: description,
		ReversalOf:  t.ID,
		CreatedAt:   time.Now().UTC(),
		eng:         t.eng,
		status:      StatusDraft,
	}
	for _, line := range t.lines {
		rev.lines = append(rev.lines, Line{
			ID:             uuid.New(),
			AccountID:      line.AccountID,
			Amount:         line.Amount,
			IsDebit:        !line.IsDebit,
			ReversalOfLine: line.ID,
		})
	}
	return rev, nil
}
