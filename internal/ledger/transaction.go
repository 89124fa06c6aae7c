package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/ledger/internal/money"
)

// Transaction is the atomic ledger entry. Amounts are stored as magnitudes;
// Direction carries the sign. CreatedAt is an audit timestamp and is never
// used for business logic.
type Transaction struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`

	Payer   Payer   `json:"payer"`
	Account Account `json:"account"`

	Amount    money.Money `json:"amount"` // transaction currency
	Direction Direction   `json:"direction"`
	Rate      money.Rate  `json:"rate"`

	// Commission is always expressed in the account's native currency and
	// always reduces the account balance.
	Commission money.Money `json:"commission"`

	Category  Category `json:"category"`
	Payee     string   `json:"payee"`
	Reference string   `json:"reference"`

	// SplitAmount of zero means "not split". When active, SplitCategory
	// classifies the split portion and Category the remainder.
	SplitAmount   money.Money `json:"split_amount"`
	SplitCategory Category    `json:"split_category"`

	// Closed latches once the owning reconciliation period closes. Lifted
	// only by an explicit reopen of that period.
	Closed bool `json:"closed"`

	// PairID links to at most one other transaction recording the same
	// economic event in a second account. Empty means unpaired.
	PairID string `json:"pair_id,omitempty"`
}

// Currency returns the transaction's own currency.
func (t *Transaction) Currency() money.Currency {
	return t.Amount.Currency
}

// IsSplit reports whether a split classification is active.
func (t *Transaction) IsSplit() bool {
	return t.SplitAmount.MinorUnits != 0
}

// Remainder is the portion of the amount not covered by the split:
// amount - split-amount. Computed, never stored.
func (t *Transaction) Remainder() money.Money {
	return money.New(t.Amount.MinorUnits-t.SplitAmount.MinorUnits, t.Amount.Currency)
}

// Signed returns the amount with its debit/credit sign applied.
func (t *Transaction) Signed() money.Money {
	return money.New(t.Direction.Sign()*t.Amount.MinorUnits, t.Amount.Currency)
}

// BaseAmount is the amount expressed in the account's native currency:
// amount divided by the exchange rate, plus commission. Magnitude view.
func (t *Transaction) BaseAmount() money.Money {
	base := t.Rate.Convert(t.Amount, t.Account.Currency())
	return money.New(base.MinorUnits+t.Commission.MinorUnits, t.Account.Currency())
}

// SignedBaseTotal is the full signed effect of the transaction on its
// account balance in the account's native currency: the split portion and
// remainder portion converted separately (so rounding matches per-posting
// sums), signed by direction, minus commission.
func (t *Transaction) SignedBaseTotal() money.Money {
	cur := t.Account.Currency()
	split := t.Rate.Convert(t.SplitAmount, cur)
	rem := t.Rate.Convert(t.Remainder(), cur)
	total := t.Direction.Sign()*(split.MinorUnits+rem.MinorUnits) - t.Commission.MinorUnits
	return money.New(total, cur)
}

// Normalize coerces meaningless field combinations on write: an unset rate
// becomes identity, and the rate is forced to identity when the transaction
// currency equals the account's native currency.
func (t *Transaction) Normalize() {
	if !t.Rate.IsSet() || t.Amount.Currency == t.Account.Currency() {
		t.Rate = money.IdentityRate
	}
}

// ValidateAt checks whether the transaction is fit to include in
// closed-period totals, evaluated against the given clock time.
func (t *Transaction) ValidateAt(now time.Time) error {
	switch {
	case t.Amount.IsZero():
		return fmt.Errorf("transaction %s: amount is zero", t.ID)
	case t.Category == CategoryUnknown:
		return fmt.Errorf("transaction %s: category is unknown", t.ID)
	case t.Amount.Currency == money.CurrencyUnknown:
		return fmt.Errorf("transaction %s: currency is unknown", t.ID)
	case t.Direction == DirectionUnknown:
		return fmt.Errorf("transaction %s: debit/credit tag not set", t.ID)
	case strings.TrimSpace(t.Payee) == "":
		return fmt.Errorf("transaction %s: payee is empty", t.ID)
	case t.Payer == PayerUnknown:
		return fmt.Errorf("transaction %s: payer is unknown", t.ID)
	case t.Account == AccountUnknown:
		return fmt.Errorf("transaction %s: account is unknown", t.ID)
	case !t.Rate.Sane():
		return fmt.Errorf("transaction %s: exchange rate %s out of range", t.ID, t.Rate)
	case t.Date.After(now):
		return fmt.Errorf("transaction %s: date %s is in the future", t.ID, t.Date.Format("2006-01-02"))
	}

	if t.IsSplit() {
		if t.SplitCategory == CategoryUnknown {
			return fmt.Errorf("transaction %s: split category is unknown", t.ID)
		}
		absSplit := t.SplitAmount.Abs().MinorUnits
		absAmount := t.Amount.Abs().MinorUnits
		if absSplit >= absAmount {
			return fmt.Errorf("transaction %s: split amount %s not below amount %s",
				t.ID, t.SplitAmount, t.Amount)
		}
	}

	return nil
}

// Validate is ValidateAt against the wall clock.
func (t *Transaction) Validate() error {
	return t.ValidateAt(time.Now())
}

// IsValid reports validity without the diagnostic.
func (t *Transaction) IsValid() bool {
	return t.Validate() == nil
}

// ComparableFields renders every semantically meaningful field into a single
// string, explicitly excluding the audit timestamp and the identity. Two
// transactions with equal ComparableFields are the same ledger entry; the
// importer uses this to discard exact re-imports.
func (t *Transaction) ComparableFields() string {
	return fmt.Sprintf("%s|%s|%s|%d|%s|%s|%d|%d|%s|%s|%s|%d|%s",
		t.Date.Format("2006-01-02"),
		t.Payer,
		t.Account,
		t.Amount.MinorUnits,
		t.Amount.Currency.Code(),
		t.Direction,
		t.Rate.Scaled,
		t.Commission.MinorUnits,
		t.Category,
		t.Payee,
		t.Reference,
		t.SplitAmount.MinorUnits,
		t.SplitCategory,
	)
}
