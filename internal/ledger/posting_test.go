package ledger

import (
	"testing"

	"github.com/dvloznov/ledger/internal/money"
)

func TestDecomposeUnsplit(t *testing.T) {
	tx := validTransaction() // 25.00 GBP debit, food

	postings := Decompose([]*Transaction{tx})
	if len(postings) != 1 {
		t.Fatalf("got %d postings, want 1", len(postings))
	}
	p := postings[0]
	if p.Category != CategoryFood {
		t.Errorf("category = %v, want food", p.Category)
	}
	if p.Amount.MinorUnits != -2500 {
		t.Errorf("amount = %d, want -2500", p.Amount.MinorUnits)
	}
	if p.Base.MinorUnits != -2500 {
		t.Errorf("base = %d, want -2500", p.Base.MinorUnits)
	}
}

func TestDecomposeSplit(t *testing.T) {
	tx := validTransaction()
	tx.SplitAmount = money.New(900, money.GBP)
	tx.SplitCategory = CategoryHealth

	postings := Decompose([]*Transaction{tx})
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(postings))
	}

	if postings[0].Category != CategoryHealth || postings[0].Amount.MinorUnits != -900 {
		t.Errorf("split posting = %+v", postings[0])
	}
	if postings[1].Category != CategoryFood || postings[1].Amount.MinorUnits != -1600 {
		t.Errorf("remainder posting = %+v", postings[1])
	}

	// The two postings must sum to the signed amount.
	sum := postings[0].Amount.MinorUnits + postings[1].Amount.MinorUnits
	if sum != tx.Signed().MinorUnits {
		t.Errorf("posting sum = %d, want %d", sum, tx.Signed().MinorUnits)
	}
}

func TestDecomposeZeroAmount(t *testing.T) {
	tx := validTransaction()
	tx.Amount = money.Zero(money.GBP)

	if postings := Decompose([]*Transaction{tx}); len(postings) != 0 {
		t.Errorf("zero-amount transaction produced %d postings", len(postings))
	}
}

func TestDecomposeCommissionOnRemainder(t *testing.T) {
	tx := validTransaction()
	tx.Commission = money.New(50, money.GBP)
	tx.SplitAmount = money.New(1000, money.GBP)
	tx.SplitCategory = CategoryHealth

	postings := Decompose([]*Transaction{tx})
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(postings))
	}

	// Commission lands on the remainder posting; posting bases sum to the
	// transaction's full balance effect.
	if postings[0].Base.MinorUnits != -1000 {
		t.Errorf("split base = %d, want -1000", postings[0].Base.MinorUnits)
	}
	if postings[1].Base.MinorUnits != -1550 {
		t.Errorf("remainder base = %d, want -1550", postings[1].Base.MinorUnits)
	}
	if got := SumBase(postings); got != tx.SignedBaseTotal().MinorUnits {
		t.Errorf("SumBase = %d, want %d", got, tx.SignedBaseTotal().MinorUnits)
	}
}

func TestTotalsByCategory(t *testing.T) {
	a := validTransaction()
	b := validTransaction()
	b.ID = "tx-2"
	b.Category = CategorySalary
	b.Direction = Credit
	b.Amount = money.New(100000, money.GBP)

	totals := TotalsByCategory(Decompose([]*Transaction{a, b}))
	if totals[CategoryFood] != -2500 {
		t.Errorf("food total = %d, want -2500", totals[CategoryFood])
	}
	if totals[CategorySalary] != 100000 {
		t.Errorf("salary total = %d, want 100000", totals[CategorySalary])
	}
}
