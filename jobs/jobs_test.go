package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/store/memory"
)

func seedRegistry(t *testing.T) (*ledger.Registry, uuid.UUID) {
	t.Helper()
	prov := dec.NewProvider(dec.BackendShopspring, nil)
	require.NoError(t, prov.Init(context.Background()))
	registry := ledger.NewRegistry(prov, nil)

	entityID := uuid.New()
	cashID := uuid.New()
	salesID := uuid.New()
	err := registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		for _, in := range []ledger.AccountInput{
			{ID: cashID, Code: "1010", Name: "Cash", Type: ledger.AccountTypeAsset, Normal: ledger.NormalDebit},
			{ID: salesID, Code: "4010", Name: "Sales", Type: ledger.AccountTypeIncome, Normal: ledger.NormalCredit},
		} {
			account, err := ledger.NewAccount(prov, in)
			if err != nil {
				return err
			}
			if err := l.AddAccount(account); err != nil {
				return err
			}
		}
		journal, err := ledger.NewJournal(prov, uuid.New(), "General", entityID)
		if err != nil {
			return err
		}
		if err := l.AddJournal(journal); err != nil {
			return err
		}
		tx, err := ledger.NewTransaction(prov, ledger.TransactionInput{
			ID:          uuid.New(),
			EntityID:    entityID,
			Date:        time.Now(),
			Description: "cash sale",
			Lines: []ledger.LineInput{
				{AccountID: cashID, Amount: "100", IsDebit: true},
				{AccountID: salesID, Amount: "100", IsDebit: false},
			},
		})
		if err != nil {
			return err
		}
		if err := tx.Post(); err != nil {
			return err
		}
		if err := l.RecordTransaction(tx); err != nil {
			return err
		}
		return journal.AddTransaction(tx)
	})
	require.NoError(t, err)
	return registry, entityID
}

func TestIntegrityJobHandlesCleanLedger(t *testing.T) {
	registry, entityID := seedRegistry(t)
	job := NewIntegrityJob(registry, observability.NewMetrics(), nil)

	task, err := NewLedgerIntegrityTask(entityID)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	// Nil entity id scans every registered ledger.
	task, err = NewLedgerIntegrityTask(uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestIntegrityJobSkipsRetryOnBadPayload(t *testing.T) {
	registry, _ := seedRegistry(t)
	job := NewIntegrityJob(registry, observability.NewMetrics(), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeLedgerIntegrity, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSnapshotJobPersistsLedger(t *testing.T) {
	registry, entityID := seedRegistry(t)
	st := memory.New()
	job := NewSnapshotJob(registry, st, nil)

	task, err := NewLedgerSnapshotTask(entityID)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	snap, err := st.LoadSnapshot(context.Background(), entityID)
	require.NoError(t, err)
	require.Len(t, snap.Accounts, 2)
	require.Len(t, snap.Transactions, 1)
	require.Equal(t, "100", snap.Accounts[0].Balance)
}

func TestSnapshotRoundTripRestoresRegistry(t *testing.T) {
	registry, entityID := seedRegistry(t)
	st := memory.New()
	job := NewSnapshotJob(registry, st, nil)
	task, err := NewLedgerSnapshotTask(uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	snap, err := st.LoadSnapshot(context.Background(), entityID)
	require.NoError(t, err)

	prov := dec.NewProvider(dec.BackendShopspring, nil)
	require.NoError(t, prov.Init(context.Background()))
	restored, err := ledger.Restore(prov, nil, snap)
	require.NoError(t, err)

	fresh := ledger.NewRegistry(prov, nil)
	require.NoError(t, fresh.Attach(restored))
	err = fresh.WithLedger(entityID, func(l *ledger.Ledger) error {
		require.Empty(t, l.CheckIntegrity())
		require.Len(t, l.History(), 1)
		return nil
	})
	require.NoError(t, err)
}
