// Package postgres provides the PostgreSQL LedgerStore implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/store"
)

// Store persists ledger snapshots and posted history in PostgreSQL. All
// decimal amounts travel as their canonical strings and are stored in
// numeric columns; the database never does arithmetic on them.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveSnapshot replaces the entity's snapshot inside one database
// transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snap store.LedgerSnapshot) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return saveSnapshotTx(ctx, tx, snap)
	})
}

func saveSnapshotTx(ctx context.Context, tx pgx.Tx, snap store.LedgerSnapshot) error {
	for _, table := range []string{"ledger_journal_transactions", "ledger_journals", "ledger_accounts"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE entity_id = $1", table), snap.EntityID); err != nil {
			return fmt.Errorf("store/postgres: clear %s: %w", table, err)
		}
	}

	for _, acc := range snap.Accounts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO ledger_accounts
				(id, entity_id, code, name, type, normal_balance, balance, is_control, is_recoverable, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			acc.ID, snap.EntityID, acc.Code, acc.Name, acc.Type, acc.NormalBalance,
			acc.Balance, acc.IsControl, acc.IsRecoverable, acc.IsActive, acc.CreatedAt, acc.UpdatedAt,
		); err != nil {
			return fmt.Errorf("store/postgres: insert account %s: %w", acc.ID, err)
		}
	}

	for _, j := range snap.Journals {
		if _, err := tx.Exec(ctx, `
			INSERT INTO ledger_journals (id, entity_id, name) VALUES ($1, $2, $3)`,
			j.ID, snap.EntityID, j.Name,
		); err != nil {
			return fmt.Errorf("store/postgres: insert journal %s: %w", j.ID, err)
		}
		for pos, txID := range j.TransactionIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO ledger_journal_transactions (journal_id, entity_id, transaction_id, position)
				VALUES ($1, $2, $3, $4)`,
				j.ID, snap.EntityID, txID, pos,
			); err != nil {
				return fmt.Errorf("store/postgres: insert journal link: %w", err)
			}
		}
	}

	for _, rec := range snap.Transactions {
		if err := insertTransaction(ctx, tx, rec); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot rebuilds the entity's snapshot.
func (s *Store) LoadSnapshot(ctx context.Context, entityID uuid.UUID) (store.LedgerSnapshot, error) {
	snap := store.LedgerSnapshot{EntityID: entityID}

	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, type, normal_balance, balance::text, is_control, is_recoverable, is_active, created_at, updated_at
		FROM ledger_accounts WHERE entity_id = $1 ORDER BY code`, entityID)
	if err != nil {
		return store.LedgerSnapshot{}, fmt.Errorf("store/postgres: query accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var acc store.AccountRecord
		if err := rows.Scan(&acc.ID, &acc.Code, &acc.Name, &acc.Type, &acc.NormalBalance,
			&acc.Balance, &acc.IsControl, &acc.IsRecoverable, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return store.LedgerSnapshot{}, fmt.Errorf("store/postgres: scan account: %w", err)
		}
		snap.Accounts = append(snap.Accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return store.LedgerSnapshot{}, err
	}

	snap.Transactions, err = s.ListTransactions(ctx, entityID)
	if err != nil {
		return store.LedgerSnapshot{}, err
	}

	jrows, err := s.pool.Query(ctx, `
		SELECT j.id, j.name, t.transaction_id
		FROM ledger_journals j
		LEFT JOIN ledger_journal_transactions t ON t.journal_id = j.id
		WHERE j.entity_id = $1
		ORDER BY j.id, t.position`, entityID)
	if err != nil {
		return store.LedgerSnapshot{}, fmt.Errorf("store/postgres: query journals: %w", err)
	}
	defer jrows.Close()
	journals := make(map[uuid.UUID]*store.JournalRecord)
	var order []uuid.UUID
	for jrows.Next() {
		var id uuid.UUID
		var name string
		var txID *uuid.UUID
		if err := jrows.Scan(&id, &name, &txID); err != nil {
			return store.LedgerSnapshot{}, fmt.Errorf("store/postgres: scan journal: %w", err)
		}
		rec, ok := journals[id]
		if !ok {
			rec = &store.JournalRecord{ID: id, Name: name, EntityID: entityID}
			journals[id] = rec
			order = append(order, id)
		}
		if txID != nil {
			rec.TransactionIDs = append(rec.TransactionIDs, *txID)
		}
	}
	if err := jrows.Err(); err != nil {
		return store.LedgerSnapshot{}, err
	}
	for _, id := range order {
		snap.Journals = append(snap.Journals, *journals[id])
	}

	if len(snap.Accounts) == 0 && len(snap.Journals) == 0 && len(snap.Transactions) == 0 {
		return store.LedgerSnapshot{}, store.ErrNotFound
	}
	return snap, nil
}

// SaveTransaction appends one posted transaction with its lines.
func (s *Store) SaveTransaction(ctx context.Context, rec store.TransactionRecord) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return insertTransaction(ctx, tx, rec)
	})
}

func insertTransaction(ctx context.Context, tx pgx.Tx, rec store.TransactionRecord) error {
	var reversalOf *uuid.UUID
	if rec.ReversalOf != uuid.Nil {
		reversalOf = &rec.ReversalOf
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_transactions (id, entity_id, date, description, status, reversal_of, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		rec.ID, rec.EntityID, rec.Date, rec.Description, rec.Status, reversalOf, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("store/postgres: insert transaction %s: %w", rec.ID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_lines WHERE transaction_id = $1`, rec.ID); err != nil {
		return fmt.Errorf("store/postgres: clear lines: %w", err)
	}
	for pos, line := range rec.Lines {
		var reversalOfLine *uuid.UUID
		if line.ReversalOfLine != uuid.Nil {
			reversalOfLine = &line.ReversalOfLine
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO ledger_lines (id, transaction_id, account_id, amount, is_debit, reversal_of_line, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ID, rec.ID, line.AccountID, line.Amount, line.IsDebit, reversalOfLine, pos,
		); err != nil {
			return fmt.Errorf("store/postgres: insert line %s: %w", line.ID, err)
		}
	}
	return nil
}

// ListTransactions returns the entity's history in posting order.
func (s *Store) ListTransactions(ctx context.Context, entityID uuid.UUID) ([]store.TransactionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, date, description, status, reversal_of, created_at
		FROM ledger_transactions WHERE entity_id = $1 ORDER BY created_at, id`, entityID)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: query transactions: %w", err)
	}
	defer rows.Close()

	var out []store.TransactionRecord
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		rec := store.TransactionRecord{EntityID: entityID}
		var reversalOf *uuid.UUID
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Description, &rec.Status, &reversalOf, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("store/postgres: scan transaction: %w", err)
		}
		if reversalOf != nil {
			rec.ReversalOf = *reversalOf
		}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lrows, err := s.pool.Query(ctx, `
		SELECT l.id, l.transaction_id, l.account_id, l.amount::text, l.is_debit, l.reversal_of_line
		FROM ledger_lines l
		JOIN ledger_transactions t ON t.id = l.transaction_id
		WHERE t.entity_id = $1
		ORDER BY l.transaction_id, l.position`, entityID)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: query lines: %w", err)
	}
	defer lrows.Close()
	for lrows.Next() {
		var line store.LineRecord
		var txID uuid.UUID
		var reversalOfLine *uuid.UUID
		if err := lrows.Scan(&line.ID, &txID, &line.AccountID, &line.Amount, &line.IsDebit, &reversalOfLine); err != nil {
			return nil, fmt.Errorf("store/postgres: scan line: %w", err)
		}
		if reversalOfLine != nil {
			line.ReversalOfLine = *reversalOfLine
		}
		if i, ok := index[txID]; ok {
			out[i].Lines = append(out[i].Lines, line)
		}
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEntities returns entity ids present in storage.
func (s *Store) ListEntities(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT entity_id FROM ledger_accounts
		UNION SELECT DISTINCT entity_id FROM ledger_transactions
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: query entities: %w", err)
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store/postgres: scan entity: %w", err)
		}
		out = append(out, id)
	}
	if errors.Is(rows.Err(), pgx.ErrNoRows) {
		return nil, nil
	}
	return out, rows.Err()
}
