package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/money"
)

// SentinelMinorUnits is written in place of a malformed amount instead of
// aborting the row: an obviously wrong figure the validity checks and the
// user will catch, rather than a silent zero.
const SentinelMinorUnits int64 = -999_999_999

// RowError is a row-local diagnostic. Rows with errors are skipped; the
// batch continues.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// normalizer turns data rows of one batch into canonical transactions.
type normalizer struct {
	format  Format
	cols    map[int]FieldKind
	arity   int
	account ledger.Account
	payer   ledger.Payer
	now     time.Time
}

func newNormalizer(format Format, header []string, account ledger.Account, payer ledger.Payer, now time.Time) *normalizer {
	return &normalizer{
		format:  format,
		cols:    format.columnMap(header),
		arity:   len(header),
		account: account,
		payer:   payer,
		now:     now,
	}
}

// transaction builds one canonical transaction from a data row. rowNum is
// 1-based over the whole table (header is row 1) and only used for
// diagnostics.
func (n *normalizer) transaction(rowNum int, fields []string) (*ledger.Transaction, *RowError) {
	if len(fields) != n.arity {
		return nil, &RowError{Row: rowNum, Reason: fmt.Sprintf(
			"field count %d does not match header count %d", len(fields), n.arity)}
	}

	t := &ledger.Transaction{
		ID:        uuid.NewString(),
		CreatedAt: n.now,
		Payer:     n.payer,
		Account:   n.account,
		Amount:    money.Zero(n.account.Currency()),
		Rate:      money.IdentityRate,
		Commission: money.Zero(n.account.Currency()),
	}

	var rawAmount, rawCurrency, details string
	for i, kind := range n.cols {
		value := strings.TrimSpace(fields[i])
		switch kind {
		case FieldDate:
			date, err := time.Parse(n.format.DateLayout, value)
			if err != nil {
				return nil, &RowError{Row: rowNum, Reason: fmt.Sprintf("unparsable date %q", value)}
			}
			t.Date = date
		case FieldPayee:
			t.Payee = value
		case FieldAmount:
			rawAmount = value
		case FieldDirection:
			t.Direction = ledger.ParseDirection(value)
		case FieldCurrency:
			rawCurrency = value
		case FieldReference:
			t.Reference = value
			details = value
		}
	}

	amount := n.parseAmount(rawAmount)
	t.Direction, t.Amount = signedAmount(amount, t.Direction, n.account.Currency())

	if rawCurrency != "" {
		if cur := money.ParseCurrency(rawCurrency); cur != money.CurrencyUnknown {
			t.Amount.Currency = cur
		}
	}

	if details != "" {
		applyForeignDetails(t, ScanDetails(details))
	}

	t.Normalize()
	return t, nil
}

// parseAmount strips thousands separators and parses the decimal value,
// falling back to the sentinel on malformed input.
func (n *normalizer) parseAmount(raw string) int64 {
	cleaned := raw
	if n.format.DecimalComma {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return SentinelMinorUnits
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return SentinelMinorUnits
	}
	return money.ToMinorUnits(d)
}

// signedAmount reconciles a possibly-signed amount with a possibly-present
// direction column: an explicit direction wins, otherwise the sign decides
// (negative is a debit) and the stored amount becomes a magnitude.
func signedAmount(minor int64, dir ledger.Direction, cur money.Currency) (ledger.Direction, money.Money) {
	magnitude := minor
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if dir == ledger.DirectionUnknown {
		if minor < 0 {
			dir = ledger.Debit
		} else if minor > 0 {
			dir = ledger.Credit
		}
	}
	return dir, money.New(magnitude, cur)
}

// applyForeignDetails overlays a foreign-currency sub-transaction extracted
// from the extended-details blob. If the extracted currency is the
// account's own currency or unrecognized, the transaction stays a
// same-currency one at rate 1 using the plain amount field.
func applyForeignDetails(t *ledger.Transaction, d Details) {
	if !d.Found {
		return
	}
	if d.Currency == money.CurrencyUnknown || d.Currency == t.Account.Currency() {
		return
	}

	t.Amount = money.New(abs64(money.ToMinorUnits(d.Amount)), d.Currency)
	t.Rate = money.NewRate(d.Rate)
	t.Commission = money.New(abs64(money.ToMinorUnits(d.Commission)), t.Account.Currency())
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
