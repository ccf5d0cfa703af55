package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/store"
)

// SnapshotJob persists ledger snapshots so state survives restarts.
type SnapshotJob struct {
	registry *ledger.Registry
	store    store.LedgerStore
	logger   *slog.Logger
}

// NewSnapshotJob constructs the job.
func NewSnapshotJob(registry *ledger.Registry, st store.LedgerStore, logger *slog.Logger) *SnapshotJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotJob{registry: registry, store: st, logger: logger}
}

// Handle processes a TaskTypeLedgerSnapshot task.
func (j *SnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	entities := j.registry.Entities()
	if payload.EntityID != uuid.Nil {
		entities = []uuid.UUID{payload.EntityID}
	}
	for _, entityID := range entities {
		var snap store.LedgerSnapshot
		err := j.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
			snap = l.Snapshot()
			return nil
		})
		if err != nil {
			return err
		}
		if err := j.store.SaveSnapshot(ctx, snap); err != nil {
			return err
		}
		j.logger.Info("ledger snapshot persisted",
			slog.String("entity_id", entityID.String()),
			slog.Int("accounts", len(snap.Accounts)),
			slog.Int("transactions", len(snap.Transactions)))
	}
	return nil
}
