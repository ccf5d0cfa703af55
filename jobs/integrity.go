package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/observability"
)

// IntegrityJob re-derives every account balance from recorded history and
// reports entities whose stored balances diverge.
type IntegrityJob struct {
	registry *ledger.Registry
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewIntegrityJob constructs the job.
func NewIntegrityJob(registry *ledger.Registry, metrics *observability.Metrics, logger *slog.Logger) *IntegrityJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntegrityJob{registry: registry, metrics: metrics, logger: logger}
}

// Handle processes a TaskTypeLedgerIntegrity task.
func (j *IntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	entities := j.registry.Entities()
	if payload.EntityID != uuid.Nil {
		entities = []uuid.UUID{payload.EntityID}
	}
	for _, entityID := range entities {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.checkEntity(entityID); err != nil {
			return err
		}
	}
	return nil
}

func (j *IntegrityJob) checkEntity(entityID uuid.UUID) error {
	return j.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		diverged := l.CheckIntegrity()
		j.metrics.IntegrityCheck(len(diverged) == 0)
		if len(diverged) == 0 {
			j.logger.Info("ledger integrity check clean",
				slog.String("entity_id", entityID.String()))
			return nil
		}
		accounts := make([]string, 0, len(diverged))
		for _, id := range diverged {
			accounts = append(accounts, id.String())
		}
		j.logger.Error("ledger integrity divergence detected",
			slog.String("entity_id", entityID.String()),
			slog.Any("accounts", accounts))
		return nil
	})
}
