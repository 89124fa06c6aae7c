package ledger

import (
	"time"

	"github.com/dvloznov/ledger/internal/money"
)

// BaselineDate is the sentinel statement date of a baseline reconciliation:
// far enough in the past to sort before any real statement.
var BaselineDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Reconciliation is one (account, accounting-period) record holding the
// statement-ending balance the ledger must explain. A synthetic baseline
// record (zero balance, sentinel date) bootstraps each account's history as
// period zero.
type Reconciliation struct {
	ID      string  `json:"id"`
	Account Account `json:"account"`

	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	StatementDate time.Time `json:"statement_date"`

	// EndingBalance is in the account's native currency.
	EndingBalance money.Money `json:"ending_balance"`

	Closed bool `json:"closed"`
}

// IsBaseline reports whether this is the synthetic period-zero record.
func (r *Reconciliation) IsBaseline() bool {
	return r.StatementDate.Equal(BaselineDate)
}

// Period renders the accounting period as "YYYY-MM", or "baseline" for the
// period-zero record.
func (r *Reconciliation) Period() string {
	if r.IsBaseline() {
		return "baseline"
	}
	return time.Date(r.Year, r.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Owns reports whether a transaction belongs to this reconciliation given
// the previous period's statement date: same account, dated after the
// previous statement and no later than this one.
func (r *Reconciliation) Owns(t *Transaction, prevStatementDate time.Time) bool {
	if t.Account != r.Account {
		return false
	}
	return t.Date.After(prevStatementDate) && !t.Date.After(r.StatementDate)
}
