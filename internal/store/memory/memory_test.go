package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/money"
	"github.com/dvloznov/ledger/internal/store"
)

func newTransaction(id string, date time.Time) *ledger.Transaction {
	return &ledger.Transaction{
		ID:        id,
		Date:      date,
		CreatedAt: time.Now(),
		Payer:     ledger.PayerDenis,
		Account:   ledger.AccountBarclaysCurrent,
		Amount:    money.New(1000, money.GBP),
		Direction: ledger.Debit,
		Rate:      money.IdentityRate,
		Category:  ledger.CategoryFood,
		Payee:     "TESCO",
	}
}

func TestTransactionCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	tx := newTransaction("a", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err := s.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertTransaction(ctx, tx); err == nil {
		t.Error("duplicate insert should fail")
	}

	// Stored record is a copy: mutating the original is invisible.
	tx.Payee = "mutated"
	got, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Payee != "TESCO" {
		t.Errorf("stored record affected by caller mutation: %+v", got[0])
	}

	tx.ID = "missing"
	if err := s.UpdateTransaction(ctx, tx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("delete missing: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, "a"); err != nil {
		t.Errorf("delete: %v", err)
	}
}

func TestClosedTransactionIsLocked(t *testing.T) {
	ctx := context.Background()
	s := New()

	tx := newTransaction("a", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err := s.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Closing the transaction is an ordinary update.
	tx.Closed = true
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Edits and deletes bounce while closed.
	edit := *tx
	edit.Payee = "EDITED"
	if err := s.UpdateTransaction(ctx, &edit); !errors.Is(err, store.ErrLocked) {
		t.Errorf("edit while closed: err = %v, want ErrLocked", err)
	}
	if err := s.DeleteTransaction(ctx, "a"); !errors.Is(err, store.ErrLocked) {
		t.Errorf("delete while closed: err = %v, want ErrLocked", err)
	}

	// Clearing the flag is a reopen and goes through.
	tx.Closed = false
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "a"); err != nil {
		t.Errorf("delete after reopen: %v", err)
	}
}

func TestListTransactionsSortedByDate(t *testing.T) {
	ctx := context.Background()
	s := New()

	later := newTransaction("b", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	earlier := newTransaction("a", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err := s.InsertTransaction(ctx, later); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertTransaction(ctx, earlier); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("wrong order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestRunInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.InsertTransaction(ctx, newTransaction("keep", time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.InsertTransaction(ctx, newTransaction("discard", time.Now())); err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, "keep"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTransaction err = %v, want boom", err)
	}

	got, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("rollback failed, have %d transactions", len(got))
	}
}

func TestRunInTransactionCommits(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.InsertTransaction(ctx, newTransaction("a", time.Now())); err != nil {
			return err
		}
		return tx.UpsertMapping(ctx, &ledger.CategoryMapping{
			Key: "tesco", Category: ledger.CategoryFood, UseCount: 1,
		})
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}

	txs, _ := s.ListTransactions(ctx)
	maps, _ := s.ListMappings(ctx)
	if len(txs) != 1 || len(maps) != 1 {
		t.Errorf("commit lost writes: %d transactions, %d mappings", len(txs), len(maps))
	}
}

func TestUpsertMapping(t *testing.T) {
	ctx := context.Background()
	s := New()

	m := &ledger.CategoryMapping{Key: "tesco", Category: ledger.CategoryFood, UseCount: 1}
	if err := s.UpsertMapping(ctx, m); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	m.Category = ledger.CategoryClothing
	m.UseCount = 7
	if err := s.UpsertMapping(ctx, m); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.ListMappings(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Category != ledger.CategoryClothing || got[0].UseCount != 7 {
		t.Errorf("upsert did not replace: %+v", got[0])
	}
}
