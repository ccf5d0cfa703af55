package ledger

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreatesLedgerOnFirstUse(t *testing.T) {
	prov := testProvider(t)
	reg := NewRegistry(prov, nil)
	entity := uuid.New()

	var first *Ledger
	require.NoError(t, reg.WithLedger(entity, func(l *Ledger) error {
		first = l
		return nil
	}))
	require.NotNil(t, first)

	require.NoError(t, reg.WithLedger(entity, func(l *Ledger) error {
		require.Same(t, first, l)
		return nil
	}))
	require.Equal(t, []uuid.UUID{entity}, reg.Entities())
}

func TestRegistryAttach(t *testing.T) {
	prov := testProvider(t)
	reg := NewRegistry(prov, nil)

	l, err := NewLedger(prov, uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, reg.Attach(l))
	require.Error(t, reg.Attach(l))
}

func TestRegistrySerializesAccess(t *testing.T) {
	prov := testProvider(t)
	reg := NewRegistry(prov, nil)
	entity := uuid.New()

	require.NoError(t, reg.WithLedger(entity, func(l *Ledger) error {
		a, err := NewAccount(prov, AccountInput{ID: uuid.New(), Code: "1010", Name: "Cash", Type: AccountTypeAsset, Normal: NormalDebit})
		if err != nil {
			return err
		}
		return l.AddAccount(a)
	}))

	// Concurrent callers interleave whole operations, never partial ones.
	var wg sync.WaitGroup
	inFlight := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.WithLedger(entity, func(l *Ledger) error {
				inFlight++
				require.Equal(t, 1, inFlight)
				inFlight--
				return nil
			})
		}()
	}
	wg.Wait()
}
