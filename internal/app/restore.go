package app

import (
	"context"
	"errors"
	"log/slog"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/store"
)

// RestoreLedgers replays every persisted snapshot into the registry. It is
// called once at startup, before the registry serves traffic.
func RestoreLedgers(ctx context.Context, prov *dec.Provider, logger *slog.Logger, st store.LedgerStore, registry *ledger.Registry) error {
	if logger == nil {
		logger = slog.Default()
	}
	entities, err := st.ListEntities(ctx)
	if err != nil {
		return err
	}
	for _, entityID := range entities {
		snap, err := st.LoadSnapshot(ctx, entityID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return err
		}
		restored, err := ledger.Restore(prov, logger, snap)
		if err != nil {
			return err
		}
		if err := registry.Attach(restored); err != nil {
			return err
		}
		logger.Info("ledger restored from snapshot",
			slog.String("entity_id", entityID.String()),
			slog.Int("accounts", len(snap.Accounts)),
			slog.Int("transactions", len(snap.Transactions)))
	}
	return nil
}
