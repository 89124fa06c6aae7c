// Package memory is an in-memory Store implementation. It backs tests and
// ephemeral runs; data is lost on process exit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/store"
)

// Store keeps all records in maps guarded by a mutex. It is safe for
// concurrent use. Records are copied on the way in and out so callers can
// never mutate stored state without an explicit write.
type Store struct {
	mu              sync.RWMutex
	transactions    map[string]*ledger.Transaction
	mappings        map[string]*ledger.CategoryMapping
	reconciliations map[string]*ledger.Reconciliation
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		transactions:    make(map[string]*ledger.Transaction),
		mappings:        make(map[string]*ledger.CategoryMapping),
		reconciliations: make(map[string]*ledger.Reconciliation),
	}
}

// ListTransactions implements store.Store. Results are sorted by
// transaction date, oldest first, with the identifier as a stable
// tie-break.
func (s *Store) ListTransactions(ctx context.Context) ([]*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ledger.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// InsertTransaction implements store.Store.
func (s *Store) InsertTransaction(ctx context.Context, t *ledger.Transaction) error {
	if t.ID == "" {
		return fmt.Errorf("memory: transaction ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[t.ID]; exists {
		return fmt.Errorf("memory: transaction %s already exists", t.ID)
	}
	c := *t
	s.transactions[t.ID] = &c
	return nil
}

// UpdateTransaction implements store.Store.
func (s *Store) UpdateTransaction(ctx context.Context, t *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.transactions[t.ID]
	if !exists {
		return fmt.Errorf("memory: transaction %s: %w", t.ID, store.ErrNotFound)
	}
	if existing.Closed && t.Closed {
		return fmt.Errorf("memory: transaction %s: %w", t.ID, store.ErrLocked)
	}
	c := *t
	s.transactions[t.ID] = &c
	return nil
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.transactions[id]
	if !exists {
		return fmt.Errorf("memory: transaction %s: %w", id, store.ErrNotFound)
	}
	if existing.Closed {
		return fmt.Errorf("memory: transaction %s: %w", id, store.ErrLocked)
	}
	delete(s.transactions, id)
	return nil
}

// ListMappings implements store.Store. Results are sorted by key.
func (s *Store) ListMappings(ctx context.Context) ([]*ledger.CategoryMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ledger.CategoryMapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// UpsertMapping implements store.Store, keyed by the mapping's normalized
// key.
func (s *Store) UpsertMapping(ctx context.Context, m *ledger.CategoryMapping) error {
	if m.Key == "" {
		return fmt.Errorf("memory: mapping key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *m
	s.mappings[m.Key] = &c
	return nil
}

// ListReconciliations implements store.Store. Results are sorted by
// statement date per account, which is the order the reconciliation engine
// reasons in.
func (s *Store) ListReconciliations(ctx context.Context) ([]*ledger.Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ledger.Reconciliation, 0, len(s.reconciliations))
	for _, r := range s.reconciliations {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].StatementDate.Before(out[j].StatementDate)
	})
	return out, nil
}

// InsertReconciliation implements store.Store.
func (s *Store) InsertReconciliation(ctx context.Context, r *ledger.Reconciliation) error {
	if r.ID == "" {
		return fmt.Errorf("memory: reconciliation ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reconciliations[r.ID]; exists {
		return fmt.Errorf("memory: reconciliation %s already exists", r.ID)
	}
	c := *r
	s.reconciliations[r.ID] = &c
	return nil
}

// UpdateReconciliation implements store.Store.
func (s *Store) UpdateReconciliation(ctx context.Context, r *ledger.Reconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reconciliations[r.ID]; !exists {
		return fmt.Errorf("memory: reconciliation %s: %w", r.ID, store.ErrNotFound)
	}
	c := *r
	s.reconciliations[r.ID] = &c
	return nil
}

// DeleteReconciliation implements store.Store.
func (s *Store) DeleteReconciliation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reconciliations[id]; !exists {
		return fmt.Errorf("memory: reconciliation %s: %w", id, store.ErrNotFound)
	}
	delete(s.reconciliations, id)
	return nil
}

// RunInTransaction implements store.Store. fn runs against a full clone of
// the store; the clone's state replaces the live state only if fn returns
// nil, giving the same all-or-nothing semantics as a database transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(store.Store) error) error {
	clone := s.clone()
	if err := fn(clone); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = clone.transactions
	s.mappings = clone.mappings
	s.reconciliations = clone.reconciliations
	return nil
}

func (s *Store) clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := New()
	for id, t := range s.transactions {
		c := *t
		clone.transactions[id] = &c
	}
	for key, m := range s.mappings {
		c := *m
		clone.mappings[key] = &c
	}
	for id, r := range s.reconciliations {
		c := *r
		clone.reconciliations[id] = &c
	}
	return clone
}
