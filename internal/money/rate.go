package money

import "github.com/shopspring/decimal"

// rateScale is the fixed-point denominator for exchange rates: four decimal
// digits of precision.
const rateScale = 10000

// Rate is an exchange rate between a transaction currency and the ledger's
// base currency, stored as an integer scaled by 10,000. A scaled value of
// zero is a sentinel for "not set" and is coerced to identity on write.
type Rate struct {
	Scaled int64 `json:"scaled"`
}

// IdentityRate is the 1.0000 rate used for same-currency transactions.
var IdentityRate = Rate{Scaled: rateScale}

// NewRate builds a Rate from a decimal value, rounding half away from zero
// at four decimal places. A zero input yields the identity rate.
func NewRate(d decimal.Decimal) Rate {
	scaled := d.Shift(4).Round(0).IntPart()
	if scaled == 0 {
		return IdentityRate
	}
	return Rate{Scaled: scaled}
}

// NewRateScaled builds a Rate directly from its scaled representation,
// coercing the zero sentinel to identity.
func NewRateScaled(scaled int64) Rate {
	if scaled == 0 {
		return IdentityRate
	}
	return Rate{Scaled: scaled}
}

// Decimal returns the rate as a decimal value.
func (r Rate) Decimal() decimal.Decimal {
	return decimal.New(r.Scaled, -4)
}

// IsSet reports whether the rate carries a usable (non-zero) value.
func (r Rate) IsSet() bool { return r.Scaled != 0 }

// IsIdentity reports whether the rate is exactly 1.0000.
func (r Rate) IsIdentity() bool { return r.Scaled == rateScale }

// maxRateScaled is the sanity ceiling for exchange rates: 100,000 major
// units of transaction currency per base unit. Rates at or above this only
// occur for currencies with extreme major/minor ratios and indicate a
// parse that picked up the wrong token.
const maxRateScaled = 100000 * rateScale

// Sane reports whether the rate is non-zero and below the sanity ceiling.
func (r Rate) Sane() bool {
	return r.Scaled > 0 && r.Scaled < maxRateScaled
}

// Convert divides an amount by the rate, producing the equivalent amount in
// the target currency, rounded half away from zero at the minor-unit
// boundary. An unset rate behaves as identity.
func (r Rate) Convert(m Money, target Currency) Money {
	if !r.IsSet() || r.IsIdentity() {
		return Money{MinorUnits: m.MinorUnits, Currency: target}
	}
	converted := m.Decimal().DivRound(r.Decimal(), 8)
	return FromDecimal(converted, target)
}

func (r Rate) String() string {
	return r.Decimal().StringFixed(4)
}
