// Package money implements fixed-point currency arithmetic. Amounts are
// stored as a signed integer count of minor units (pence, cents) together
// with a currency code; a decimal view is derived on demand. Exchange rates
// are stored as integers scaled by 10,000.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is a closed set of currency codes. Unknown is a valid in-memory
// value but never valid for saving.
type Currency int

const (
	CurrencyUnknown Currency = iota
	GBP
	EUR
	USD
	CZK
	JPY
)

var currencyCodes = map[Currency]string{
	CurrencyUnknown: "???",
	GBP:             "GBP",
	EUR:             "EUR",
	USD:             "USD",
	CZK:             "CZK",
	JPY:             "JPY",
}

var currencyByCode = map[string]Currency{
	"GBP": GBP,
	"EUR": EUR,
	"USD": USD,
	"CZK": CZK,
	"JPY": JPY,
}

// Code returns the ISO 4217 code, or "???" for CurrencyUnknown.
func (c Currency) Code() string {
	if code, ok := currencyCodes[c]; ok {
		return code
	}
	return "???"
}

func (c Currency) String() string { return c.Code() }

// ParseCurrency resolves an ISO code (any case) to a Currency.
// Unrecognized codes map to CurrencyUnknown.
func ParseCurrency(code string) Currency {
	if c, ok := currencyByCode[normalizeCode(code)]; ok {
		return c
	}
	return CurrencyUnknown
}

func normalizeCode(code string) string {
	b := make([]byte, 0, len(code))
	for i := 0; i < len(code); i++ {
		ch := code[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch != ' ' && ch != '\t' {
			b = append(b, ch)
		}
	}
	return string(b)
}

// minorFactor is the number of minor units per major unit. The ledger stores
// two decimal places for every currency, including zero-decimal ones like
// JPY, so the factor is a single constant rather than per-currency data.
const minorFactor = 100

// Money is an amount in a single currency, held as an integer number of
// minor units.
type Money struct {
	MinorUnits int64    `json:"minor_units"`
	Currency   Currency `json:"currency"`
}

// New builds a Money from a count of minor units.
func New(minorUnits int64, currency Currency) Money {
	return Money{MinorUnits: minorUnits, Currency: currency}
}

// Zero returns a zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{Currency: currency}
}

// FromDecimal converts a decimal major-unit amount to Money, rounding
// half away from zero at two decimal places.
func FromDecimal(d decimal.Decimal, currency Currency) Money {
	return Money{MinorUnits: ToMinorUnits(d), Currency: currency}
}

// ToMinorUnits converts a decimal major-unit value to integer minor units,
// rounding half away from zero at the minor-unit boundary. Total and
// deterministic: 1.005 -> 101, -1.005 -> -101.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// ToDecimal is the inverse view: minor units divided by 100.
func ToDecimal(minorUnits int64) decimal.Decimal {
	return decimal.New(minorUnits, -2)
}

// Decimal returns the major-unit decimal view of the amount.
func (m Money) Decimal() decimal.Decimal {
	return ToDecimal(m.MinorUnits)
}

// Add returns m + other. Panics are avoided: mixed currencies return an
// error instead, since silent unit mixing is the one bug a money type exists
// to prevent.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("money: cannot add %s to %s", other.Currency, m.Currency)
	}
	return Money{MinorUnits: m.MinorUnits + other.MinorUnits, Currency: m.Currency}, nil
}

// Sub returns m - other, with the same currency check as Add.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("money: cannot subtract %s from %s", other.Currency, m.Currency)
	}
	return Money{MinorUnits: m.MinorUnits - other.MinorUnits, Currency: m.Currency}, nil
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{MinorUnits: -m.MinorUnits, Currency: m.Currency}
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.MinorUnits < 0 {
		return m.Neg()
	}
	return m
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.MinorUnits == 0 }

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(2), m.Currency.Code())
}
