package bigquery

import (
	"math/big"
	"testing"
	"time"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/money"
)

func TestRowFromTransaction(t *testing.T) {
	tx := &ledger.Transaction{
		ID:         "tx-1",
		Date:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		Payer:      ledger.PayerDenis,
		Account:    ledger.AccountBarclaysCard,
		Amount:     money.New(12540, money.EUR),
		Direction:  ledger.Debit,
		Rate:       money.NewRateScaled(11755),
		Commission: money.New(150, money.GBP),
		Category:   ledger.CategoryTravel,
		Payee:      "HOTEL PARIS",
		Reference:  "card payment",
	}

	exported := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	row := rowFromTransaction(tx, exported)

	if row.TransactionID != "tx-1" {
		t.Errorf("id = %s", row.TransactionID)
	}
	if row.TransactionDate.String() != "2026-03-10" {
		t.Errorf("date = %s", row.TransactionDate)
	}
	if row.Amount.Cmp(big.NewRat(-12540, 100)) != 0 {
		t.Errorf("amount = %s, want -125.40", row.Amount.FloatString(2))
	}
	if row.Currency != "EUR" || row.BaseCurrency != "GBP" {
		t.Errorf("currencies = %s/%s", row.Currency, row.BaseCurrency)
	}
	if row.Rate.Cmp(big.NewRat(11755, 10000)) != 0 {
		t.Errorf("rate = %s", row.Rate.FloatString(4))
	}
	if !row.Reference.Valid || row.Reference.StringVal != "card payment" {
		t.Errorf("reference = %+v", row.Reference)
	}
	if row.SplitCategory.Valid || row.PairID.Valid {
		t.Errorf("unsplit unpaired row has split/pair set: %+v", row)
	}
	if !row.ExportedTS.Equal(exported) {
		t.Errorf("exported ts = %s", row.ExportedTS)
	}

	// Base amount: 125.40 EUR / 1.1755 = 106.68 GBP, plus 1.50 commission,
	// signed negative for a debit.
	want := tx.SignedBaseTotal()
	if row.BaseAmount.Cmp(big.NewRat(want.MinorUnits, 100)) != 0 {
		t.Errorf("base amount = %s, want %s", row.BaseAmount.FloatString(2), want)
	}
}

func TestRowFromSplitTransaction(t *testing.T) {
	tx := &ledger.Transaction{
		ID:            "tx-2",
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:     time.Now(),
		Payer:         ledger.PayerOlga,
		Account:       ledger.AccountBarclaysCurrent,
		Amount:        money.New(5000, money.GBP),
		Direction:     ledger.Debit,
		Rate:          money.IdentityRate,
		Category:      ledger.CategoryFood,
		Payee:         "TESCO",
		SplitAmount:   money.New(1500, money.GBP),
		SplitCategory: ledger.CategoryHealth,
		PairID:        "pair-7",
	}

	row := rowFromTransaction(tx, time.Now())
	if !row.SplitCategory.Valid || row.SplitCategory.StringVal != "health" {
		t.Errorf("split category = %+v", row.SplitCategory)
	}
	if row.SplitAmount.Cmp(big.NewRat(1500, 100)) != 0 {
		t.Errorf("split amount = %s", row.SplitAmount.FloatString(2))
	}
	if !row.PairID.Valid || row.PairID.StringVal != "pair-7" {
		t.Errorf("pair id = %+v", row.PairID)
	}
}
