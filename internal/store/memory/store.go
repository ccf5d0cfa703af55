// Package memory provides an in-memory LedgerStore for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/store"
)

// Store keeps snapshots and transaction records in process memory. Safe for
// concurrent use.
type Store struct {
	mu           sync.Mutex
	snapshots    map[uuid.UUID]store.LedgerSnapshot
	transactions map[uuid.UUID][]store.TransactionRecord
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		snapshots:    make(map[uuid.UUID]store.LedgerSnapshot),
		transactions: make(map[uuid.UUID][]store.TransactionRecord),
	}
}

// SaveSnapshot replaces the entity's snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap store.LedgerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.EntityID] = cloneSnapshot(snap)
	return nil
}

// LoadSnapshot returns the entity's snapshot or store.ErrNotFound.
func (s *Store) LoadSnapshot(ctx context.Context, entityID uuid.UUID) (store.LedgerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[entityID]
	if !ok {
		return store.LedgerSnapshot{}, store.ErrNotFound
	}
	return cloneSnapshot(snap), nil
}

// SaveTransaction appends one transaction record to the entity's history.
func (s *Store) SaveTransaction(ctx context.Context, rec store.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[rec.EntityID] = append(s.transactions[rec.EntityID], cloneTransaction(rec))
	return nil
}

// ListTransactions returns a copy of the entity's recorded history in
// append order.
func (s *Store) ListTransactions(ctx context.Context, entityID uuid.UUID) ([]store.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.transactions[entityID]
	out := make([]store.TransactionRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, cloneTransaction(rec))
	}
	return out, nil
}

// ListEntities returns every entity id with stored state, in stable order.
func (s *Store) ListEntities(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	for id := range s.snapshots {
		seen[id] = struct{}{}
	}
	for id := range s.transactions {
		seen[id] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func cloneSnapshot(snap store.LedgerSnapshot) store.LedgerSnapshot {
	out := snap
	out.Accounts = append([]store.AccountRecord(nil), snap.Accounts...)
	out.Journals = make([]store.JournalRecord, 0, len(snap.Journals))
	for _, j := range snap.Journals {
		jc := j
		jc.TransactionIDs = append([]uuid.UUID(nil), j.TransactionIDs...)
		out.Journals = append(out.Journals, jc)
	}
	out.Transactions = make([]store.TransactionRecord, 0, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		out.Transactions = append(out.Transactions, cloneTransaction(tx))
	}
	return out
}

func cloneTransaction(rec store.TransactionRecord) store.TransactionRecord {
	out := rec
	out.Lines = append([]store.LineRecord(nil), rec.Lines...)
	return out
}
