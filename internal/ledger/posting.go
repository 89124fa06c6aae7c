package ledger

import "github.com/dvloznov/ledger/internal/money"

// Posting is a single category-tagged amount derived from a transaction:
// the split portion or the remainder. All category totals and reconciliation
// sums are computed over postings, and the decomposition is always computed
// from the transactions at hand, never cached, so edits are reflected
// immediately.
type Posting struct {
	TransactionID string
	Category      Category

	// Amount is signed, in the transaction's own currency.
	Amount money.Money

	// Base is signed, in the account's native currency. Commission is
	// charged against the remainder posting so that posting bases sum to
	// the transaction's full balance effect.
	Base money.Money
}

// Decompose produces the postings for a collection of transactions: one
// posting per non-zero split amount tagged with the split category, and one
// per non-zero remainder tagged with the main category. Unsplit transactions
// yield a single posting covering the whole amount.
func Decompose(txs []*Transaction) []Posting {
	postings := make([]Posting, 0, len(txs))
	for _, t := range txs {
		postings = append(postings, decomposeOne(t)...)
	}
	return postings
}

func decomposeOne(t *Transaction) []Posting {
	cur := t.Currency()
	base := t.Account.Currency()
	sign := t.Direction.Sign()

	var out []Posting

	if t.SplitAmount.MinorUnits != 0 {
		splitBase := t.Rate.Convert(t.SplitAmount, base)
		out = append(out, Posting{
			TransactionID: t.ID,
			Category:      t.SplitCategory,
			Amount:        money.New(sign*t.SplitAmount.MinorUnits, cur),
			Base:          money.New(sign*splitBase.MinorUnits, base),
		})
	}

	rem := t.Remainder()
	if rem.MinorUnits != 0 {
		remBase := t.Rate.Convert(rem, base)
		out = append(out, Posting{
			TransactionID: t.ID,
			Category:      t.Category,
			Amount:        money.New(sign*rem.MinorUnits, cur),
			Base:          money.New(sign*remBase.MinorUnits-t.Commission.MinorUnits, base),
		})
	}

	return out
}

// SumBase adds up the signed base-currency amounts of a posting set.
// The caller guarantees all postings share one base currency.
func SumBase(postings []Posting) int64 {
	var sum int64
	for _, p := range postings {
		sum += p.Base.MinorUnits
	}
	return sum
}

// TotalsByCategory sums signed base-currency posting amounts per category.
func TotalsByCategory(postings []Posting) map[Category]int64 {
	totals := make(map[Category]int64)
	for _, p := range postings {
		totals[p.Category] += p.Base.MinorUnits
	}
	return totals
}
