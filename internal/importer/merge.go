package importer

import (
	"context"

	"github.com/dvloznov/ledger/internal/ledger"
)

// Resolution is the outcome of a merge decision for one duplicate pair.
type Resolution int

const (
	// ResolutionMerge means the resolver has already unified fields onto
	// the existing record; the incoming transaction is discarded and the
	// existing one written back.
	ResolutionMerge Resolution = iota
	// ResolutionKeepExisting discards the incoming transaction.
	ResolutionKeepExisting
	// ResolutionKeepNew discards the existing transaction and keeps the
	// incoming one.
	ResolutionKeepNew
	// ResolutionKeepBoth retains both records; no pairing is implied.
	ResolutionKeepBoth
	// ResolutionCancel aborts the remainder of the batch. Rows committed
	// before the cancellation stand.
	ResolutionCancel
)

func (r Resolution) String() string {
	switch r {
	case ResolutionMerge:
		return "merge"
	case ResolutionKeepExisting:
		return "keep-existing"
	case ResolutionKeepNew:
		return "keep-new"
	case ResolutionKeepBoth:
		return "keep-both"
	case ResolutionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// FieldChoice is one field of a merge proposal: both sides' values, the
// engine's suggested default, and whether the sides genuinely disagree.
type FieldChoice struct {
	Name      string
	Existing  string
	Incoming  string
	Preferred string
	Conflict  bool
}

// Proposal carries the engine's per-field defaults for a duplicate pair.
// The engine never decides a merge itself; it only suggests.
type Proposal struct {
	Fields []FieldChoice
}

// Conflicts lists the names of fields where both sides hold different
// non-empty values.
func (p *Proposal) Conflicts() []string {
	var names []string
	for _, f := range p.Fields {
		if f.Conflict {
			names = append(names, f.Name)
		}
	}
	return names
}

// Resolver is the external decision-maker for duplicate pairs: a UI, an
// interactive prompt, or a test harness. The import batch suspends at each
// call and resumes with the returned resolution.
type Resolver interface {
	Resolve(ctx context.Context, existing, incoming *ledger.Transaction, proposal *Proposal) (Resolution, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context, existing, incoming *ledger.Transaction, proposal *Proposal) (Resolution, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, existing, incoming *ledger.Transaction, proposal *Proposal) (Resolution, error) {
	return f(ctx, existing, incoming, proposal)
}

// buildProposal computes per-field defaults: prefer whichever side has a
// non-empty value, and prefer the existing record when both sides hold
// different non-empty values — flagged as a conflict for the resolver's
// attention.
func buildProposal(existing, incoming *ledger.Transaction) *Proposal {
	pairs := []struct {
		name            string
		existingV, newV string
	}{
		{"date", renderDate(existing), renderDate(incoming)},
		{"payer", renderEnum(existing.Payer.String()), renderEnum(incoming.Payer.String())},
		{"account", renderEnum(existing.Account.String()), renderEnum(incoming.Account.String())},
		{"amount", existing.Signed().String(), incoming.Signed().String()},
		{"rate", existing.Rate.String(), incoming.Rate.String()},
		{"commission", renderMoney(existing), renderMoney(incoming)},
		{"category", renderEnum(existing.Category.String()), renderEnum(incoming.Category.String())},
		{"payee", existing.Payee, incoming.Payee},
		{"reference", existing.Reference, incoming.Reference},
	}

	p := &Proposal{Fields: make([]FieldChoice, 0, len(pairs))}
	for _, pair := range pairs {
		choice := FieldChoice{Name: pair.name, Existing: pair.existingV, Incoming: pair.newV}
		switch {
		case pair.existingV == pair.newV:
			choice.Preferred = pair.existingV
		case pair.existingV == "":
			choice.Preferred = pair.newV
		case pair.newV == "":
			choice.Preferred = pair.existingV
		default:
			choice.Preferred = pair.existingV
			choice.Conflict = true
		}
		p.Fields = append(p.Fields, choice)
	}
	return p
}

func renderDate(t *ledger.Transaction) string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format("2006-01-02")
}

// renderEnum maps the Unknown sentinel to "no value" so the prefer-non-empty
// rule treats it as absent rather than as a conflicting opinion.
func renderEnum(name string) string {
	if name == "unknown" {
		return ""
	}
	return name
}

func renderMoney(t *ledger.Transaction) string {
	if t.Commission.IsZero() {
		return ""
	}
	return t.Commission.String()
}
