package ledger

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

// Registry holds one ledger per entity and serializes access to each. The
// core itself performs no locking; this is the external mutex boundary the
// calling layers go through.
type Registry struct {
	mu      sync.Mutex
	prov    *dec.Provider
	logger  *slog.Logger
	ledgers map[uuid.UUID]*Ledger
}

// NewRegistry constructs an empty registry.
func NewRegistry(prov *dec.Provider, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		prov:    prov,
		logger:  logger,
		ledgers: make(map[uuid.UUID]*Ledger),
	}
}

// Provider exposes the decimal provider ledgers are built with.
func (r *Registry) Provider() *dec.Provider { return r.prov }

// WithLedger runs fn with the entity's ledger, creating it on first use.
// Calls are serialized; no two fn invocations run concurrently.
func (r *Registry) WithLedger(entityID uuid.UUID, fn func(*Ledger) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ledgers[entityID]
	if !ok {
		var err error
		l, err = NewLedger(r.prov, entityID, r.logger)
		if err != nil {
			return err
		}
		r.ledgers[entityID] = l
	}
	return fn(l)
}

// Attach registers an existing ledger, for example one restored from a
// snapshot. It fails when the entity already has a ledger.
func (r *Registry) Attach(l *Ledger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ledgers[l.EntityID]; exists {
		return fmt.Errorf("ledger: entity %s already attached", l.EntityID)
	}
	r.ledgers[l.EntityID] = l
	return nil
}

// Entities returns the registered entity ids in stable order.
func (r *Registry) Entities() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, 0, len(r.ledgers))
	for id := range r.ledgers {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
