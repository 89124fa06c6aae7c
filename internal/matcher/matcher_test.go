package matcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/money"
	"github.com/dvloznov/ledger/internal/store"
	"github.com/dvloznov/ledger/internal/store/memory"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"TESCO STORES 1234", "tescostores1234"},
		{"  Café-Rouge  ", "caférouge"},
		{"A&B*C", "abc"},
		{"", ""},
		{"***", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func seedMatcher(t *testing.T, mappings ...*ledger.CategoryMapping) (*Matcher, *memory.Store) {
	t.Helper()
	s := memory.New()
	for _, m := range mappings {
		if err := s.UpsertMapping(context.Background(), m); err != nil {
			t.Fatalf("seed mapping %q: %v", m.Key, err)
		}
	}
	return New(s, zerolog.Nop()), s
}

func TestMatchTiers(t *testing.T) {
	m, _ := seedMatcher(t,
		&ledger.CategoryMapping{Key: "tesco", Category: ledger.CategoryFood, UseCount: 1},
		&ledger.CategoryMapping{Key: "tescoextra", Category: ledger.CategoryFood, UseCount: 5},
		&ledger.CategoryMapping{Key: "rouge", Category: ledger.CategoryEntertainment, UseCount: 2},
	)
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		want  ledger.Category
	}{
		// Exact tier.
		{"exact", "TESCO", ledger.CategoryFood},
		// Prefix tier: "TESCO EXTRA STORE" starts with stored key
		// "tescoextra"; higher-usage prefix key preferred over "tesco".
		{"prefix prefers higher usage", "TESCO EXTRA STORE", ledger.CategoryFood},
		// Contains tier: "rouge" appears mid-string.
		{"contains", "LE GRAND ROUGE PARIS", ledger.CategoryEntertainment},
		// No tier matches.
		{"no match", "UNRELATED PAYEE", ledger.CategoryUnknown},
		{"empty input", "", ledger.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(ctx, tt.input); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatchPrefixTierWinsOverContains(t *testing.T) {
	// "tesco" matches as a prefix; "store" would match in the contains
	// tier with a far higher usage count, but prefix is tried first and
	// wins outright.
	m, _ := seedMatcher(t,
		&ledger.CategoryMapping{Key: "tesco", Category: ledger.CategoryFood, UseCount: 1},
		&ledger.CategoryMapping{Key: "store", Category: ledger.CategoryClothing, UseCount: 99},
	)
	if got := m.Match(context.Background(), "TESCO STORE 44"); got != ledger.CategoryFood {
		t.Errorf("Match = %v, want food (prefix tier must win)", got)
	}
}

func TestMatchFoldsDiacriticsInPrefixTier(t *testing.T) {
	m, _ := seedMatcher(t,
		&ledger.CategoryMapping{Key: "café", Category: ledger.CategoryFood, UseCount: 1},
	)
	if got := m.Match(context.Background(), "CAFE NERO 17"); got != ledger.CategoryFood {
		t.Errorf("Match = %v, want food (diacritic fold)", got)
	}
}

func TestMatchBumpsUsageCount(t *testing.T) {
	m, s := seedMatcher(t,
		&ledger.CategoryMapping{Key: "tesco", Category: ledger.CategoryFood, UseCount: 1},
	)
	ctx := context.Background()

	if got := m.Match(ctx, "TESCO"); got != ledger.CategoryFood {
		t.Fatalf("Match = %v", got)
	}

	mappings, err := s.ListMappings(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if mappings[0].UseCount != 2 {
		t.Errorf("UseCount = %d, want 2", mappings[0].UseCount)
	}
}

// failingStore wraps the in-memory store and fails ListMappings.
type failingStore struct {
	store.Store
}

func (f *failingStore) ListMappings(ctx context.Context) ([]*ledger.CategoryMapping, error) {
	return nil, errors.New("store down")
}

func TestMatchDegradesToUnknownOnStoreFailure(t *testing.T) {
	m := New(&failingStore{Store: memory.New()}, zerolog.Nop())
	if got := m.Match(context.Background(), "TESCO"); got != ledger.CategoryUnknown {
		t.Errorf("Match = %v, want unknown on store failure", got)
	}
}

func TestTeachCreatesAndUpdates(t *testing.T) {
	m, s := seedMatcher(t)
	ctx := context.Background()

	if err := m.Teach(ctx, "TESCO STORES", ledger.CategoryFood); err != nil {
		t.Fatalf("Teach: %v", err)
	}
	mappings, _ := s.ListMappings(ctx)
	if len(mappings) != 1 || mappings[0].Key != "tescostores" || mappings[0].UseCount != 1 {
		t.Fatalf("taught mapping = %+v", mappings[0])
	}

	// Teaching the same input again moves the category and bumps the count.
	if err := m.Teach(ctx, "TESCO STORES", ledger.CategoryClothing); err != nil {
		t.Fatalf("second Teach: %v", err)
	}
	mappings, _ = s.ListMappings(ctx)
	if mappings[0].Category != ledger.CategoryClothing || mappings[0].UseCount != 2 {
		t.Errorf("updated mapping = %+v", mappings[0])
	}
}

func TestTeachReclassifiesUnknownTransactions(t *testing.T) {
	m, s := seedMatcher(t)
	ctx := context.Background()

	unknown := &ledger.Transaction{
		ID:        "tx-1",
		Date:      time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Now(),
		Payer:     ledger.PayerDenis,
		Account:   ledger.AccountBarclaysCurrent,
		Amount:    money.New(999, money.GBP),
		Direction: ledger.Debit,
		Rate:      money.IdentityRate,
		Category:  ledger.CategoryUnknown,
		Payee:     "TESCO STORES 1234",
	}
	classified := &ledger.Transaction{
		ID:        "tx-2",
		Date:      unknown.Date,
		CreatedAt: time.Now(),
		Payer:     ledger.PayerDenis,
		Account:   ledger.AccountBarclaysCurrent,
		Amount:    money.New(500, money.GBP),
		Direction: ledger.Debit,
		Rate:      money.IdentityRate,
		Category:  ledger.CategoryTravel,
		Payee:     "TESCO STORES 1234",
	}
	if err := s.InsertTransaction(ctx, unknown); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertTransaction(ctx, classified); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := m.Teach(ctx, "TESCO", ledger.CategoryFood); err != nil {
		t.Fatalf("Teach: %v", err)
	}

	txs, _ := s.ListTransactions(ctx)
	for _, tx := range txs {
		switch tx.ID {
		case "tx-1":
			if tx.Category != ledger.CategoryFood {
				t.Errorf("unknown transaction not reclassified: %v", tx.Category)
			}
		case "tx-2":
			if tx.Category != ledger.CategoryTravel {
				t.Errorf("already-classified transaction touched: %v", tx.Category)
			}
		}
	}
}

func TestTeachRejectsUnknownCategory(t *testing.T) {
	m, _ := seedMatcher(t)
	if err := m.Teach(context.Background(), "TESCO", ledger.CategoryUnknown); err == nil {
		t.Error("teaching the unknown category should fail")
	}
	if err := m.Teach(context.Background(), "***", ledger.CategoryFood); err == nil {
		t.Error("teaching an empty normalized key should fail")
	}
}
