package ledger

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
	"github.com/ledgerline/ledgerline/internal/reports"
	"github.com/ledgerline/ledgerline/internal/store"
)

// Ledger is the aggregate root for one entity. It owns accounts and
// journals, and its RecordTransaction is the only path that mutates an
// account balance. The caller serializes access; the ledger itself performs
// no locking.
type Ledger struct {
	EntityID uuid.UUID

	eng      dec.Engine
	logger   *slog.Logger
	accounts map[uuid.UUID]*Account
	journals map[uuid.UUID]*Journal
	history  []*Transaction
	recorded map[uuid.UUID]struct{}
}

// NewLedger constructs an empty ledger for the entity.
func NewLedger(prov *dec.Provider, entityID uuid.UUID, logger *slog.Logger) (*Ledger, error) {
	eng, err := prov.Engine()
	if err != nil {
		return nil, err
	}
	if entityID == uuid.Nil {
		return nil, fmt.Errorf("%w: entity id", ErrMissingField)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		EntityID: entityID,
		eng:      eng,
		logger:   logger,
		accounts: make(map[uuid.UUID]*Account),
		journals: make(map[uuid.UUID]*Journal),
		recorded: make(map[uuid.UUID]struct{}),
	}, nil
}

// Engine exposes the decimal engine the ledger computes with.
func (l *Ledger) Engine() dec.Engine { return l.eng }

// AddAccount registers an account.
func (l *Ledger) AddAccount(a *Account) error {
	if _, exists := l.accounts[a.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, a.ID)
	}
	l.accounts[a.ID] = a
	return nil
}

// Account looks up an account by id.
func (l *Ledger) Account(id uuid.UUID) (*Account, bool) {
	a, ok := l.accounts[id]
	return a, ok
}

// Accounts returns all accounts ordered by code.
func (l *Ledger) Accounts() []*Account {
	out := make([]*Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// AddJournal registers a journal after entity and id checks.
func (l *Ledger) AddJournal(j *Journal) error {
	if j.EntityID != l.EntityID {
		return fmt.Errorf("%w: journal %s", ErrEntityMismatch, j.ID)
	}
	if _, exists := l.journals[j.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJournal, j.ID)
	}
	l.journals[j.ID] = j
	return nil
}

// Journal looks up a journal by id.
func (l *Ledger) Journal(id uuid.UUID) (*Journal, bool) {
	j, ok := l.journals[id]
	return j, ok
}

// Journals returns the ledger's journals sorted by name.
func (l *Ledger) Journals() []*Journal {
	out := make([]*Journal, 0, len(l.journals))
	for _, j := range l.journals {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Transaction looks up a recorded transaction by id.
func (l *Ledger) Transaction(id uuid.UUID) (*Transaction, bool) {
	if _, ok := l.recorded[id]; !ok {
		return nil, false
	}
	for _, tx := range l.history {
		if tx.ID == id {
			return tx, true
		}
	}
	return nil, false
}

// History returns a copy of the posted-history list in record order.
func (l *Ledger) History() []*Transaction {
	out := make([]*Transaction, len(l.history))
	copy(out, l.history)
	return out
}

// RecordTransaction is the single authoritative posting path. Every check
// runs to completion before any account mutation begins: either every
// line's effect is applied, or none is.
func (l *Ledger) RecordTransaction(tx *Transaction) error {
	if tx.EntityID != l.EntityID {
		return fmt.Errorf("%w: transaction %s", ErrEntityMismatch, tx.ID)
	}
	if tx.Status() != StatusPosted {
		return fmt.Errorf("%w: record %s transaction %s", ErrInvalidStatus, tx.Status(), tx.ID)
	}
	if !tx.IsBalanced() {
		return fmt.Errorf("%w: transaction %s", ErrUnbalanced, tx.ID)
	}
	if _, exists := l.recorded[tx.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.ID)
	}
	lines := tx.Lines()
	for _, line := range lines {
		account, ok := l.accounts[line.AccountID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, line.AccountID)
		}
		if !account.IsActive {
			return fmt.Errorf("%w: %s", ErrAccountInactive, line.AccountID)
		}
	}
	for i, line := range lines {
		if err := l.accounts[line.AccountID].ApplyPosting(line.Amount, line.IsDebit); err != nil {
			// Validation above makes this unreachable; unwind the applied
			// prefix so a broken invariant cannot leave a partial posting.
			for j := i - 1; j >= 0; j-- {
				prev := lines[j]
				_ = l.accounts[prev.AccountID].ApplyPosting(prev.Amount, !prev.IsDebit)
			}
			return err
		}
	}
	l.history = append(l.history, tx)
	l.recorded[tx.ID] = struct{}{}
	return nil
}

// TrialBalance derives a debit/credit pair per account from its balance and
// polarity and builds the grouped report. A column mismatch signals an
// invariant violation elsewhere, so it logs at warning level rather than
// failing.
func (l *Ledger) TrialBalance() reports.TrialBalance {
	tb := reports.BuildTrialBalance(l.eng, l.AccountBalances())
	if !tb.Balanced() {
		l.logger.Warn("trial balance columns disagree",
			slog.String("entity_id", l.EntityID.String()),
			slog.String("total_debit", tb.TotalDebit.String()),
			slog.String("total_credit", tb.TotalCredit.String()))
	}
	return tb
}

// AccountBalances maps every account into its reporting columns, sorted by
// code.
func (l *Ledger) AccountBalances() []reports.AccountBalance {
	rows := make([]reports.AccountBalance, 0, len(l.accounts))
	for _, a := range l.Accounts() {
		debit, credit := splitBalance(l.eng, a)
		rows = append(rows, reports.AccountBalance{
			Code:   a.Code,
			Name:   a.Name,
			Type:   string(a.Type),
			Debit:  debit,
			Credit: credit,
		})
	}
	return rows
}

// splitBalance maps a balance to its reporting column: a non-negative
// balance reports on the account's normal side, a negative balance reports
// as its absolute value on the opposite side.
func splitBalance(eng dec.Engine, a *Account) (debit, credit dec.Value) {
	debit = eng.Zero()
	credit = eng.Zero()
	balance := a.Balance()
	switch {
	case a.IsDebitNormal() && !balance.IsNegative():
		debit = balance
	case a.IsDebitNormal():
		credit = balance.Abs()
	case !balance.IsNegative():
		credit = balance
	default:
		debit = balance.Abs()
	}
	return debit, credit
}

// DeriveBalances independently recomputes every account's balance from the
// recorded history using the same polarity rule.
func (l *Ledger) DeriveBalances() map[uuid.UUID]dec.Value {
	derived := make(map[uuid.UUID]dec.Value, len(l.accounts))
	for id := range l.accounts {
		derived[id] = l.eng.Zero()
	}
	for _, tx := range l.history {
		for _, line := range tx.Lines() {
			account, ok := l.accounts[line.AccountID]
			if !ok {
				continue
			}
			current := derived[line.AccountID]
			if line.IsDebit == account.IsDebitNormal() {
				derived[line.AccountID] = current.Add(line.Amount)
			} else {
				derived[line.AccountID] = current.Sub(line.Amount)
			}
		}
	}
	return derived
}

// CheckIntegrity compares stored balances against re-derivation from
// history and returns the ids of accounts that diverge.
func (l *Ledger) CheckIntegrity() []uuid.UUID {
	derived := l.DeriveBalances()
	var diverged []uuid.UUID
	for id, account := range l.accounts {
		if account.Balance().Cmp(derived[id]) != 0 {
			diverged = append(diverged, id)
		}
	}
	sort.Slice(diverged, func(i, j int) bool { return diverged[i].String() < diverged[j].String() })
	return diverged
}

// Snapshot emits the ledger state as plain serializable records for the
// persistence collaborator.
func (l *Ledger) Snapshot() store.LedgerSnapshot {
	snap := store.LedgerSnapshot{
		EntityID: l.EntityID,
		TakenAt:  time.Now().UTC(),
	}
	for _, a := range l.Accounts() {
		snap.Accounts = append(snap.Accounts, store.AccountRecord{
			ID:            a.ID,
			Code:          a.Code,
			Name:          a.Name,
			Type:          string(a.Type),
			NormalBalance: string(a.Normal),
			Balance:       a.Balance().String(),
			IsControl:     a.IsControl,
			IsRecoverable: a.IsRecoverable,
			IsActive:      a.IsActive,
			CreatedAt:     a.CreatedAt,
			UpdatedAt:     a.UpdatedAt,
		})
	}
	journalIDs := make([]uuid.UUID, 0, len(l.journals))
	for id := range l.journals {
		journalIDs = append(journalIDs, id)
	}
	sort.Slice(journalIDs, func(i, j int) bool { return journalIDs[i].String() < journalIDs[j].String() })
	for _, id := range journalIDs {
		j := l.journals[id]
		rec := store.JournalRecord{ID: j.ID, Name: j.Name, EntityID: j.EntityID}
		for _, tx := range j.Transactions() {
			rec.TransactionIDs = append(rec.TransactionIDs, tx.ID)
		}
		snap.Journals = append(snap.Journals, rec)
	}
	for _, tx := range l.history {
		snap.Transactions = append(snap.Transactions, TransactionRecord(tx))
	}
	return snap
}

// TransactionRecord converts a transaction to its serializable form.
func TransactionRecord(tx *Transaction) store.TransactionRecord {
	rec := store.TransactionRecord{
		ID:          tx.ID,
		EntityID:    tx.EntityID,
		Date:        tx.Date,
		Description: tx.Description,
		Status:      string(tx.Status()),
		ReversalOf:  tx.ReversalOf,
		CreatedAt:   tx.CreatedAt,
	}
	for _, line := range tx.Lines() {
		rec.Lines = append(rec.Lines, store.LineRecord{
			ID:             line.ID,
			AccountID:      line.AccountID,
			Amount:         line.Amount.String(),
			IsDebit:        line.IsDebit,
			ReversalOfLine: line.ReversalOfLine,
		})
	}
	return rec
}

// Restore rebuilds a ledger from a snapshot by replaying the recorded
// history through RecordTransaction, so the balance invariant holds by
// construction rather than trust in the stored balance strings.
func Restore(prov *dec.Provider, logger *slog.Logger, snap store.LedgerSnapshot) (*Ledger, error) {
	l, err := NewLedger(prov, snap.EntityID, logger)
	if err != nil {
		return nil, err
	}
	for _, rec := range snap.Accounts {
		account, err := NewAccount(prov, AccountInput{
			ID:            rec.ID,
			Code:          rec.Code,
			Name:          rec.Name,
			Type:          AccountType(rec.Type),
			Normal:        NormalBalance(rec.NormalBalance),
			IsControl:     rec.IsControl,
			IsRecoverable: rec.IsRecoverable,
		})
		if err != nil {
			return nil, err
		}
		if err := l.AddAccount(account); err != nil {
			return nil, err
		}
	}
	byID := make(map[uuid.UUID]*Transaction, len(snap.Transactions))
	for _, rec := range snap.Transactions {
		tx, err := restoreTransaction(prov, rec)
		if err != nil {
			return nil, err
		}
		if rec.Status == string(StatusPosted) || rec.Status == string(StatusVoid) {
			if err := l.RecordTransaction(tx); err != nil {
				return nil, err
			}
			// Voids happened after recording; replay them in the same order.
			if rec.Status == string(StatusVoid) {
				if err := tx.Void(); err != nil {
					return nil, err
				}
			}
		}
		byID[tx.ID] = tx
	}
	for _, rec := range snap.Journals {
		j, err := NewJournal(prov, rec.ID, rec.Name, rec.EntityID)
		if err != nil {
			return nil, err
		}
		for _, txID := range rec.TransactionIDs {
			if tx, ok := byID[txID]; ok {
				if err := j.AddTransaction(tx); err != nil {
					return nil, err
				}
			}
		}
		if err := l.AddJournal(j); err != nil {
			return nil, err
		}
	}
	// Deactivations replay last so historical postings to now-inactive
	// accounts still apply.
	for _, rec := range snap.Accounts {
		if !rec.IsActive {
			if account, ok := l.Account(rec.ID); ok {
				account.Deactivate()
			}
		}
	}
	return l, nil
}

func restoreTransaction(prov *dec.Provider, rec store.TransactionRecord) (*Transaction, error) {
	in := TransactionInput{
		ID:          rec.ID,
		EntityID:    rec.EntityID,
		Date:        rec.Date,
		Description: rec.Description,
	}
	for _, line := range rec.Lines {
		in.Lines = append(in.Lines, LineInput{
			AccountID: line.AccountID,
			Amount:    line.Amount,
			IsDebit:   line.IsDebit,
		})
	}
	tx, err := NewTransaction(prov, in)
	if err != nil {
		return nil, err
	}
	tx.ReversalOf = rec.ReversalOf
	for i, line := range rec.Lines {
		tx.lines[i].ID = line.ID
		tx.lines[i].ReversalOfLine = line.ReversalOfLine
	}
	switch TransactionStatus(rec.Status) {
	case StatusPosted, StatusVoid:
		if err := tx.Post(); err != nil {
			return nil, err
		}
	}
	return tx, nil
}
