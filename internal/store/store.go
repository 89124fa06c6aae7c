// Package store defines the persistence capability the core requires. The
// core never reaches for an ambient database handle: every component takes a
// Store explicitly, which keeps it testable against the in-memory
// implementation without a live database.
package store

import (
	"context"
	"errors"

	"github.com/dvloznov/ledger/internal/ledger"
)

// ErrNotFound is returned by update and delete operations when no record
// with the given identity exists.
var ErrNotFound = errors.New("store: record not found")

// ErrLocked is returned when a write touches a transaction that a closed
// reconciliation owns. Reopening the reconciliation clears the lock; a write
// that itself clears the Closed flag is such a reopen and is allowed through.
var ErrLocked = errors.New("store: transaction is locked by a closed reconciliation")

// Store is the persistence contract for transactions, category mappings and
// reconciliations. List operations return copies; mutating a returned record
// has no effect until it is written back.
type Store interface {
	ListTransactions(ctx context.Context) ([]*ledger.Transaction, error)
	InsertTransaction(ctx context.Context, t *ledger.Transaction) error
	UpdateTransaction(ctx context.Context, t *ledger.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	ListMappings(ctx context.Context) ([]*ledger.CategoryMapping, error)
	UpsertMapping(ctx context.Context, m *ledger.CategoryMapping) error

	ListReconciliations(ctx context.Context) ([]*ledger.Reconciliation, error)
	InsertReconciliation(ctx context.Context, r *ledger.Reconciliation) error
	UpdateReconciliation(ctx context.Context, r *ledger.Reconciliation) error
	DeleteReconciliation(ctx context.Context, id string) error

	// RunInTransaction executes fn against a view of the store whose writes
	// land atomically: either every mutation fn performed commits, or none
	// do. fn receiving an error from any store call should normally return
	// it so the batch rolls back.
	RunInTransaction(ctx context.Context, fn func(Store) error) error
}
