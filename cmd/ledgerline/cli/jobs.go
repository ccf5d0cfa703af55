// Package cli provides operational helpers for managing background jobs.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	return &JobsCLI{
		client:    asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
		inspector: asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr}),
	}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name. An empty entity scopes the task
// to every registered ledger.
func (c *JobsCLI) Trigger(ctx context.Context, name, entity string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	entityID := uuid.Nil
	if entity != "" {
		parsed, err := uuid.Parse(entity)
		if err != nil {
			return nil, fmt.Errorf("jobs cli: invalid entity id %q: %w", entity, err)
		}
		entityID = parsed
	}
	var task *asynq.Task
	var err error
	switch name {
	case jobs.TaskTypeLedgerIntegrity:
		task, err = jobs.NewLedgerIntegrityTask(entityID)
	case jobs.TaskTypeLedgerSnapshot:
		task, err = jobs.NewLedgerSnapshotTask(entityID)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Queue(jobs.QueueDefault))
}

// Pending reports the number of pending tasks on the default queue.
func (c *JobsCLI) Pending() (int, error) {
	if c == nil || c.inspector == nil {
		return 0, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return 0, err
	}
	return info.Pending, nil
}
