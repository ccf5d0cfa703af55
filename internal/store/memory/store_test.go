package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/store"
)

func sampleSnapshot(entityID uuid.UUID) store.LedgerSnapshot {
	txID := uuid.New()
	return store.LedgerSnapshot{
		EntityID: entityID,
		Accounts: []store.AccountRecord{
			{ID: uuid.New(), Code: "1010", Name: "Cash", Type: "ASSET", NormalBalance: "DEBIT", Balance: "900", IsActive: true},
		},
		Journals: []store.JournalRecord{
			{ID: uuid.New(), Name: "General", EntityID: entityID, TransactionIDs: []uuid.UUID{txID}},
		},
		Transactions: []store.TransactionRecord{
			{
				ID: txID, EntityID: entityID, Date: time.Now().UTC(), Description: "opening", Status: "POSTED",
				Lines: []store.LineRecord{
					{ID: uuid.New(), AccountID: uuid.New(), Amount: "900", IsDebit: true},
					{ID: uuid.New(), AccountID: uuid.New(), Amount: "900", IsDebit: false},
				},
			},
		},
		TakenAt: time.Now().UTC(),
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	entityID := uuid.New()

	if _, err := s.LoadSnapshot(ctx, entityID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	snap := sampleSnapshot(entityID)
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	got, err := s.LoadSnapshot(ctx, entityID)
	require.NoError(t, err)
	require.Equal(t, snap, got)

	// the stored copy is insulated from caller mutation
	snap.Accounts[0].Balance = "0"
	got2, err := s.LoadSnapshot(ctx, entityID)
	require.NoError(t, err)
	require.Equal(t, "900", got2.Accounts[0].Balance)
}

func TestTransactionsAppendInOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	entityID := uuid.New()

	first := store.TransactionRecord{ID: uuid.New(), EntityID: entityID, Description: "one", Status: "POSTED"}
	second := store.TransactionRecord{ID: uuid.New(), EntityID: entityID, Description: "two", Status: "POSTED"}
	require.NoError(t, s.SaveTransaction(ctx, first))
	require.NoError(t, s.SaveTransaction(ctx, second))

	recs, err := s.ListTransactions(ctx, entityID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "one", recs[0].Description)
	require.Equal(t, "two", recs[1].Description)

	other, err := s.ListTransactions(ctx, uuid.New())
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestListEntities(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot(a)))
	require.NoError(t, s.SaveTransaction(ctx, store.TransactionRecord{ID: uuid.New(), EntityID: b, Status: "POSTED"}))

	ids, err := s.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Contains(t, ids, a)
	require.Contains(t, ids, b)
}
