// Package jobs contains the background worker and its task definitions.
package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLedgerIntegrity re-derives balances and flags divergence.
	TaskTypeLedgerIntegrity = "ledger:integrity"
	// TaskTypeLedgerSnapshot persists ledger snapshots to the store.
	TaskTypeLedgerSnapshot = "ledger:snapshot"
)

// LedgerTaskPayload scopes a task to one entity, or to every registered
// entity when EntityID is nil.
type LedgerTaskPayload struct {
	EntityID uuid.UUID `json:"entity_id"`
}

// NewLedgerIntegrityTask constructs an integrity-check task.
func NewLedgerIntegrityTask(entityID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerTaskPayload{EntityID: entityID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLedgerIntegrity, data), nil
}

// NewLedgerSnapshotTask constructs a snapshot-persistence task.
func NewLedgerSnapshotTask(entityID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerTaskPayload{EntityID: entityID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLedgerSnapshot, data), nil
}
