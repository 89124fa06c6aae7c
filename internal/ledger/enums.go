// Package ledger defines the canonical domain model: transactions and their
// derived postings, category mappings, and reconciliation records. Every
// closed enumeration carries an explicit Unknown variant; Unknown values are
// representable in memory but never valid for saving.
package ledger

import "github.com/dvloznov/ledger/internal/money"

// Category is the closed set of budget categories.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryFood
	CategoryHousing
	CategoryTransport
	CategoryUtilities
	CategoryEntertainment
	CategoryHealth
	CategoryClothing
	CategoryTravel
	CategorySalary
	CategoryTransfer
	CategoryFees
	CategoryGifts
)

var categoryNames = map[Category]string{
	CategoryUnknown:       "unknown",
	CategoryFood:          "food",
	CategoryHousing:       "housing",
	CategoryTransport:     "transport",
	CategoryUtilities:     "utilities",
	CategoryEntertainment: "entertainment",
	CategoryHealth:        "health",
	CategoryClothing:      "clothing",
	CategoryTravel:        "travel",
	CategorySalary:        "salary",
	CategoryTransfer:      "transfer",
	CategoryFees:          "fees",
	CategoryGifts:         "gifts",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCategory resolves a category name (case-insensitive) to a Category.
// Unrecognized names map to CategoryUnknown.
func ParseCategory(name string) Category {
	for c, n := range categoryNames {
		if n == lowerASCII(name) {
			return c
		}
	}
	return CategoryUnknown
}

// Categories lists every category except CategoryUnknown, in declaration
// order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryNames)-1)
	for c := CategoryFood; c <= CategoryGifts; c++ {
		out = append(out, c)
	}
	return out
}

// Payer is the closed set of known account holders.
type Payer int

const (
	PayerUnknown Payer = iota
	PayerDenis
	PayerOlga
	PayerJoint
)

var payerNames = map[Payer]string{
	PayerUnknown: "unknown",
	PayerDenis:   "denis",
	PayerOlga:    "olga",
	PayerJoint:   "joint",
}

func (p Payer) String() string {
	if name, ok := payerNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePayer resolves a payer name (case-insensitive) to a Payer.
func ParsePayer(name string) Payer {
	for p, n := range payerNames {
		if n == lowerASCII(name) {
			return p
		}
	}
	return PayerUnknown
}

// Account is the closed set of reconcilable payment accounts. Each account
// has a fixed native currency.
type Account int

const (
	AccountUnknown Account = iota
	AccountBarclaysCurrent
	AccountBarclaysCard
	AccountRevolutEUR
	AccountMonzoJoint
	AccountCash
)

type accountInfo struct {
	name     string
	currency money.Currency
}

var accounts = map[Account]accountInfo{
	AccountUnknown:         {"unknown", money.CurrencyUnknown},
	AccountBarclaysCurrent: {"barclays-current", money.GBP},
	AccountBarclaysCard:    {"barclays-card", money.GBP},
	AccountRevolutEUR:      {"revolut-eur", money.EUR},
	AccountMonzoJoint:      {"monzo-joint", money.GBP},
	AccountCash:            {"cash", money.GBP},
}

func (a Account) String() string {
	if info, ok := accounts[a]; ok {
		return info.name
	}
	return "unknown"
}

// Currency returns the account's fixed native currency.
func (a Account) Currency() money.Currency {
	if info, ok := accounts[a]; ok {
		return info.currency
	}
	return money.CurrencyUnknown
}

// ParseAccount resolves an account name (case-insensitive) to an Account.
func ParseAccount(name string) Account {
	for a, info := range accounts {
		if info.name == lowerASCII(name) {
			return a
		}
	}
	return AccountUnknown
}

// Accounts lists every account except AccountUnknown.
func Accounts() []Account {
	out := make([]Account, 0, len(accounts)-1)
	for a := AccountBarclaysCurrent; a <= AccountCash; a++ {
		out = append(out, a)
	}
	return out
}

// Direction is the debit/credit sign tag on a transaction. Amounts are
// stored as magnitudes; Direction gives them their sign.
type Direction int

const (
	DirectionUnknown Direction = iota
	Debit
	Credit
)

func (d Direction) String() string {
	switch d {
	case Debit:
		return "debit"
	case Credit:
		return "credit"
	default:
		return "unknown"
	}
}

// Sign returns -1 for debits, +1 for credits and 0 when unset.
func (d Direction) Sign() int64 {
	switch d {
	case Debit:
		return -1
	case Credit:
		return 1
	default:
		return 0
	}
}

// ParseDirection resolves a direction name (case-insensitive).
func ParseDirection(name string) Direction {
	switch lowerASCII(name) {
	case "debit", "out", "dr":
		return Debit
	case "credit", "in", "cr":
		return Credit
	default:
		return DirectionUnknown
	}
}

func lowerASCII(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		if ch == ' ' || ch == '\t' {
			continue
		}
		b = append(b, ch)
	}
	return string(b)
}
