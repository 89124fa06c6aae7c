package importer

import "github.com/dvloznov/ledger/internal/ledger"

// Duplicate search window: statements commonly post a transaction a few
// days after it clears, rarely before, so the window around the incoming
// date is asymmetric — an existing entry up to seven days older or one day
// newer is a candidate.
const (
	windowDaysBefore = 7
	windowDaysAfter  = 1
)

// findCandidate scans a snapshot (rows committed earlier in this batch plus
// everything already persisted) for a likely duplicate of t: equal signed
// amount, equal payment account, date within the window. The first match
// wins. Deliberately loose — no currency or payee comparison — because
// false positives are resolved by the merge step, not by narrowing the
// filter here.
func findCandidate(t *ledger.Transaction, snapshot []*ledger.Transaction) *ledger.Transaction {
	lo := t.Date.AddDate(0, 0, -windowDaysBefore)
	hi := t.Date.AddDate(0, 0, windowDaysAfter)

	for _, existing := range snapshot {
		if existing.Signed().MinorUnits != t.Signed().MinorUnits {
			continue
		}
		if existing.Account != t.Account {
			continue
		}
		if existing.Date.Before(lo) || existing.Date.After(hi) {
			continue
		}
		return existing
	}
	return nil
}

// isExactReimport reports whether the incoming transaction is byte-identical
// to the candidate across every semantically meaningful field (audit
// timestamp excluded). Such rows are silently discarded.
func isExactReimport(existing, incoming *ledger.Transaction) bool {
	return existing.ComparableFields() == incoming.ComparableFields()
}
