package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema defines the ledger tables. Amounts are stored as numeric so the
// database preserves the canonical decimal strings exactly; all arithmetic
// stays in the application.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_accounts (
    id             UUID PRIMARY KEY,
    entity_id      UUID NOT NULL,
    code           TEXT NOT NULL,
    name           TEXT NOT NULL,
    type           TEXT NOT NULL,
    normal_balance TEXT NOT NULL,
    balance        NUMERIC NOT NULL DEFAULT 0,
    is_control     BOOLEAN NOT NULL DEFAULT FALSE,
    is_recoverable BOOLEAN NOT NULL DEFAULT FALSE,
    is_active      BOOLEAN NOT NULL DEFAULT TRUE,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL,
    UNIQUE (entity_id, code)
);

CREATE INDEX IF NOT EXISTS idx_ledger_accounts_entity
    ON ledger_accounts (entity_id);

CREATE TABLE IF NOT EXISTS ledger_transactions (
    id          UUID PRIMARY KEY,
    entity_id   UUID NOT NULL,
    date        TIMESTAMPTZ NOT NULL,
    description TEXT NOT NULL,
    status      TEXT NOT NULL,
    reversal_of UUID,
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_transactions_entity
    ON ledger_transactions (entity_id, created_at);

CREATE TABLE IF NOT EXISTS ledger_lines (
    id               UUID PRIMARY KEY,
    transaction_id   UUID NOT NULL REFERENCES ledger_transactions (id) ON DELETE CASCADE,
    account_id       UUID NOT NULL,
    amount           NUMERIC NOT NULL,
    is_debit         BOOLEAN NOT NULL,
    reversal_of_line UUID,
    position         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_lines_transaction
    ON ledger_lines (transaction_id, position);

CREATE TABLE IF NOT EXISTS ledger_journals (
    id        UUID PRIMARY KEY,
    entity_id UUID NOT NULL,
    name      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_journals_entity
    ON ledger_journals (entity_id);

CREATE TABLE IF NOT EXISTS ledger_journal_transactions (
    journal_id     UUID NOT NULL REFERENCES ledger_journals (id) ON DELETE CASCADE,
    entity_id      UUID NOT NULL,
    transaction_id UUID NOT NULL,
    position       INTEGER NOT NULL,
    PRIMARY KEY (journal_id, transaction_id)
);
`

// EnsureSchema creates the ledger tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store/postgres: ensure schema: %w", err)
	}
	return nil
}
