package importer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/ledger/internal/money"
)

// Details is the foreign-currency sub-transaction some card statements
// bury in their extended-details free text.
type Details struct {
	Found      bool
	Amount     decimal.Decimal
	Currency   money.Currency
	Commission decimal.Decimal
	Rate       decimal.Decimal
}

// The fixed keyword anchors, as whitespace-split token sequences.
var (
	anchorForeign    = []string{"foreign", "spend", "amount:"}
	anchorCommission = []string{"commission", "amount:"}
	anchorRate       = []string{"currency", "exchange", "rate:"}
)

type scanState int

const (
	seekingAnchor scanState = iota
	capturingCurrency
	done
)

// ScanDetails runs a token scan over an extended-details blob, extracting —
// when present — a foreign spend amount, a foreign currency name, a
// commission amount and an exchange rate. The scanner is a small state
// machine: it seeks the "foreign spend amount:" anchor, reads the amount,
// then captures currency-name tokens until the next anchor, after which the
// remaining anchors each consume a single value token.
func ScanDetails(blob string) Details {
	tokens := strings.Fields(strings.ToLower(blob))

	var (
		d        Details
		state    = seekingAnchor
		currency []string
	)

	for i := 0; i < len(tokens); {
		switch state {
		case seekingAnchor:
			if hasAnchor(tokens, i, anchorForeign) {
				i += len(anchorForeign)
				if i >= len(tokens) {
					return Details{}
				}
				amount, err := decimal.NewFromString(stripSeparators(tokens[i]))
				if err != nil {
					return Details{}
				}
				d.Amount = amount
				d.Found = true
				state = capturingCurrency
				i++
			} else {
				i++
			}

		case capturingCurrency:
			switch {
			case hasAnchor(tokens, i, anchorCommission):
				i += len(anchorCommission)
				if i < len(tokens) {
					if v, err := decimal.NewFromString(stripSeparators(tokens[i])); err == nil {
						d.Commission = v
					}
					i++
				}
			case hasAnchor(tokens, i, anchorRate):
				i += len(anchorRate)
				if i < len(tokens) {
					if v, err := decimal.NewFromString(stripSeparators(tokens[i])); err == nil {
						d.Rate = v
					}
					i++
				}
				state = done
			default:
				currency = append(currency, tokens[i])
				i++
			}

		case done:
			i = len(tokens)
		}
	}

	if !d.Found {
		return Details{}
	}
	d.Currency = currencyFromName(strings.Join(currency, " "))
	return d
}

func hasAnchor(tokens []string, at int, anchor []string) bool {
	if at+len(anchor) > len(tokens) {
		return false
	}
	for j, want := range anchor {
		if tokens[at+j] != want {
			return false
		}
	}
	return true
}

func stripSeparators(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// currencyNames maps spelled-out currency names, as statements print them,
// to currency codes. Unknown names yield CurrencyUnknown, which the caller
// treats as "no foreign sub-transaction".
var currencyNames = map[string]money.Currency{
	"euro":           money.EUR,
	"euros":          money.EUR,
	"us dollar":      money.USD,
	"us dollars":     money.USD,
	"dollar":         money.USD,
	"dollars":        money.USD,
	"czech koruna":   money.CZK,
	"japanese yen":   money.JPY,
	"yen":            money.JPY,
	"pound sterling": money.GBP,
	"pounds":         money.GBP,
}

func currencyFromName(name string) money.Currency {
	name = strings.TrimSpace(name)
	if c, ok := currencyNames[name]; ok {
		return c
	}
	// Statements sometimes print the ISO code instead of a name.
	return money.ParseCurrency(name)
}
