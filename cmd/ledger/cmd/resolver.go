package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/ledger/internal/importer"
	"github.com/dvloznov/ledger/internal/ledger"
)

// autoResolver keeps the existing record for every duplicate. The
// conservative choice for scripted runs: re-running an import can never
// overwrite manual edits.
type autoResolver struct{}

func (autoResolver) Resolve(ctx context.Context, existing, incoming *ledger.Transaction, p *importer.Proposal) (importer.Resolution, error) {
	return importer.ResolutionKeepExisting, nil
}

// promptResolver asks the user to resolve each duplicate on the terminal.
type promptResolver struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPromptResolver(in io.Reader, out io.Writer) *promptResolver {
	return &promptResolver{in: bufio.NewScanner(in), out: out}
}

func (p *promptResolver) Resolve(ctx context.Context, existing, incoming *ledger.Transaction, proposal *importer.Proposal) (importer.Resolution, error) {
	fmt.Fprintf(p.out, "\npossible duplicate of %s:\n", existing.ID)
	for _, f := range proposal.Fields {
		marker := " "
		if f.Conflict {
			marker = "!"
		}
		fmt.Fprintf(p.out, " %s %-10s existing=%q incoming=%q\n", marker, f.Name, f.Existing, f.Incoming)
	}

	for {
		fmt.Fprint(p.out, "[m]erge, keep [e]xisting, keep [n]ew, keep [b]oth, [c]ancel batch: ")
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return importer.ResolutionCancel, err
			}
			return importer.ResolutionCancel, nil
		}
		switch strings.ToLower(strings.TrimSpace(p.in.Text())) {
		case "m":
			mergePreferred(existing, incoming)
			return importer.ResolutionMerge, nil
		case "e":
			return importer.ResolutionKeepExisting, nil
		case "n":
			return importer.ResolutionKeepNew, nil
		case "b":
			return importer.ResolutionKeepBoth, nil
		case "c":
			return importer.ResolutionCancel, nil
		}
	}
}

// mergePreferred unifies fields onto the existing record the same way the
// per-field proposal defaults do: take the incoming value where the
// existing one is absent, keep the existing value everywhere else.
func mergePreferred(existing, incoming *ledger.Transaction) {
	if existing.Payee == "" {
		existing.Payee = incoming.Payee
	}
	if existing.Reference == "" {
		existing.Reference = incoming.Reference
	}
	if existing.Category == ledger.CategoryUnknown {
		existing.Category = incoming.Category
	}
	if existing.Payer == ledger.PayerUnknown {
		existing.Payer = incoming.Payer
	}
	if existing.Commission.IsZero() {
		existing.Commission = incoming.Commission
	}
	if existing.Date.IsZero() {
		existing.Date = incoming.Date
	}
}
