package ledger

import (
	"testing"
	"time"

	"github.com/dvloznov/ledger/internal/money"
)

func validTransaction() *Transaction {
	return &Transaction{
		ID:        "tx-1",
		Date:      time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Now(),
		Payer:     PayerDenis,
		Account:   AccountBarclaysCurrent,
		Amount:    money.New(2500, money.GBP),
		Direction: Debit,
		Rate:      money.IdentityRate,
		Category:  CategoryFood,
		Payee:     "TESCO STORES 1234",
	}
}

func TestValidateAt(t *testing.T) {
	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr bool
	}{
		{"valid", func(tx *Transaction) {}, false},
		{"zero amount", func(tx *Transaction) { tx.Amount = money.Zero(money.GBP) }, true},
		{"unknown category", func(tx *Transaction) { tx.Category = CategoryUnknown }, true},
		{"unknown currency", func(tx *Transaction) { tx.Amount.Currency = money.CurrencyUnknown }, true},
		{"no direction", func(tx *Transaction) { tx.Direction = DirectionUnknown }, true},
		{"empty payee", func(tx *Transaction) { tx.Payee = "   " }, true},
		{"unknown payer", func(tx *Transaction) { tx.Payer = PayerUnknown }, true},
		{"unknown account", func(tx *Transaction) { tx.Account = AccountUnknown }, true},
		{"zero rate", func(tx *Transaction) { tx.Rate = money.Rate{} }, true},
		{"absurd rate", func(tx *Transaction) { tx.Rate = money.NewRateScaled(100000 * 10000) }, true},
		{"future date", func(tx *Transaction) { tx.Date = now.AddDate(0, 0, 1) }, true},
		{
			"valid split",
			func(tx *Transaction) {
				tx.SplitAmount = money.New(1000, money.GBP)
				tx.SplitCategory = CategoryHealth
			},
			false,
		},
		{
			"split without category",
			func(tx *Transaction) { tx.SplitAmount = money.New(1000, money.GBP) },
			true,
		},
		{
			"split equal to amount",
			func(tx *Transaction) {
				tx.SplitAmount = money.New(2500, money.GBP)
				tx.SplitCategory = CategoryHealth
			},
			true,
		},
		{
			"split above amount",
			func(tx *Transaction) {
				tx.SplitAmount = money.New(3000, money.GBP)
				tx.SplitCategory = CategoryHealth
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(tx)
			err := tx.ValidateAt(now)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAt() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemainder(t *testing.T) {
	tx := validTransaction()
	tx.SplitAmount = money.New(900, money.GBP)

	rem := tx.Remainder()
	if rem.MinorUnits != 1600 {
		t.Errorf("Remainder = %d, want 1600", rem.MinorUnits)
	}

	// Unsplit: remainder is the whole amount.
	tx.SplitAmount = money.Zero(money.GBP)
	if tx.Remainder().MinorUnits != 2500 {
		t.Errorf("unsplit Remainder = %d, want 2500", tx.Remainder().MinorUnits)
	}
}

func TestBaseAmountWithRateAndCommission(t *testing.T) {
	tx := validTransaction()
	tx.Account = AccountBarclaysCurrent
	tx.Amount = money.New(2500, money.EUR)  // 25.00 EUR
	tx.Rate = money.NewRateScaled(12500)    // 1.2500 EUR per GBP
	tx.Commission = money.New(50, money.GBP)

	base := tx.BaseAmount()
	// 25.00 / 1.25 = 20.00, plus 0.50 commission.
	if base.MinorUnits != 2050 || base.Currency != money.GBP {
		t.Errorf("BaseAmount = %v, want 20.50 GBP", base)
	}
}

func TestSignedBaseTotal(t *testing.T) {
	tx := validTransaction()
	tx.Amount = money.New(2500, money.EUR)
	tx.Rate = money.NewRateScaled(12500)
	tx.Commission = money.New(50, money.GBP)
	tx.SplitAmount = money.New(1000, money.EUR)
	tx.SplitCategory = CategoryHealth

	// split 10.00/1.25 = 8.00, remainder 15.00/1.25 = 12.00,
	// debit sign, minus 0.50 commission: -(800+1200)-50 = -2050.
	total := tx.SignedBaseTotal()
	if total.MinorUnits != -2050 {
		t.Errorf("SignedBaseTotal = %d, want -2050", total.MinorUnits)
	}
}

func TestNormalize(t *testing.T) {
	tx := validTransaction()
	tx.Rate = money.Rate{} // unset
	tx.Normalize()
	if !tx.Rate.IsIdentity() {
		t.Errorf("unset rate not coerced to identity: %v", tx.Rate)
	}

	// Foreign rate on a same-currency transaction is meaningless.
	tx = validTransaction()
	tx.Rate = money.NewRateScaled(12500)
	tx.Normalize()
	if !tx.Rate.IsIdentity() {
		t.Errorf("same-currency rate not forced to identity: %v", tx.Rate)
	}

	// A genuine foreign-currency rate survives.
	tx = validTransaction()
	tx.Amount.Currency = money.EUR
	tx.Rate = money.NewRateScaled(12500)
	tx.Normalize()
	if tx.Rate.Scaled != 12500 {
		t.Errorf("foreign rate was clobbered: %v", tx.Rate)
	}
}

func TestComparableFieldsIgnoresAudit(t *testing.T) {
	a := validTransaction()
	b := validTransaction()
	b.ID = "tx-2"
	b.CreatedAt = a.CreatedAt.Add(48 * time.Hour)

	if a.ComparableFields() != b.ComparableFields() {
		t.Error("identity and audit timestamp should not affect comparable fields")
	}

	b.Payee = "different"
	if a.ComparableFields() == b.ComparableFields() {
		t.Error("payee change should affect comparable fields")
	}
}
