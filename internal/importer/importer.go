package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/matcher"
	"github.com/dvloznov/ledger/internal/store"
)

// ErrBatchCancelled reports a resolver-driven abort. Rows committed before
// the cancellation remain committed.
var ErrBatchCancelled = errors.New("importer: batch cancelled by resolver")

// Importer drives one import batch: normalize each row, suggest a category,
// search for duplicates, and suspend at each unresolved duplicate until the
// resolver decides.
type Importer struct {
	store    store.Store
	matcher  *matcher.Matcher
	resolver Resolver
	log      zerolog.Logger
}

// New creates an Importer. The resolver is the batch's external
// decision-maker; processing pauses at every duplicate candidate until it
// answers.
func New(s store.Store, m *matcher.Matcher, r Resolver, log zerolog.Logger) *Importer {
	return &Importer{store: s, matcher: m, resolver: r, log: log}
}

// Options fixes the batch-wide attributes rows cannot carry themselves.
type Options struct {
	Account ledger.Account
	Payer   ledger.Payer
}

// Result summarizes one import batch.
type Result struct {
	// Committed lists the transactions this batch persisted, in row order.
	Committed []*ledger.Transaction

	// SkippedRows holds row-local diagnostics for rows that could not be
	// normalized. Skipping is never fatal to the batch.
	SkippedRows []RowError

	// ExactReimports counts rows silently discarded as byte-identical to
	// an already-known transaction.
	ExactReimports int

	// Cancelled is set when the resolver aborted the remainder of the
	// batch.
	Cancelled bool
}

// ImportRows processes a table whose first row is the header. Row-local
// problems are recorded and skipped; store failures and resolver errors
// abort the batch (rows already committed stand). Returns ErrBatchCancelled
// alongside the partial result when the resolver cancels.
func (imp *Importer) ImportRows(ctx context.Context, rows [][]string, format Format, opts Options) (*Result, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("importer: empty table, expected a header row")
	}
	if opts.Account == ledger.AccountUnknown {
		return nil, fmt.Errorf("importer: an account is required")
	}

	n := newNormalizer(format, rows[0], opts.Account, opts.Payer, time.Now())
	result := &Result{}

	// Snapshot of everything already persisted; rows committed by this
	// batch are appended as they land so later rows dedupe against them.
	snapshot, err := imp.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("importer: loading existing transactions: %w", err)
	}

	for i, fields := range rows[1:] {
		rowNum := i + 2

		t, rowErr := n.transaction(rowNum, fields)
		if rowErr != nil {
			imp.log.Warn().Int("row", rowNum).Str("reason", rowErr.Reason).Msg("skipping row")
			result.SkippedRows = append(result.SkippedRows, *rowErr)
			continue
		}

		if t.Category == ledger.CategoryUnknown && imp.matcher != nil {
			t.Category = imp.matcher.Match(ctx, t.Payee)
		}

		existing := findCandidate(t, snapshot)
		if existing == nil {
			if err := imp.commit(ctx, t, result, &snapshot); err != nil {
				return result, err
			}
			continue
		}

		if isExactReimport(existing, t) {
			imp.log.Debug().Str("payee", t.Payee).Str("existing_id", existing.ID).
				Msg("discarding exact re-import")
			result.ExactReimports++
			continue
		}

		resolution, err := imp.resolver.Resolve(ctx, existing, t, buildProposal(existing, t))
		if err != nil {
			return result, fmt.Errorf("importer: resolving duplicate at row %d: %w", rowNum, err)
		}

		switch resolution {
		case ResolutionMerge:
			// The resolver unified fields onto the existing record.
			if err := imp.store.UpdateTransaction(ctx, existing); err != nil {
				return result, fmt.Errorf("importer: merging at row %d: %w", rowNum, err)
			}

		case ResolutionKeepExisting:
			// Incoming row discarded.

		case ResolutionKeepNew:
			if err := imp.store.DeleteTransaction(ctx, existing.ID); err != nil {
				return result, fmt.Errorf("importer: replacing %s at row %d: %w", existing.ID, rowNum, err)
			}
			snapshot = removeByID(snapshot, existing.ID)
			result.Committed = removeByID(result.Committed, existing.ID)
			if err := imp.commit(ctx, t, result, &snapshot); err != nil {
				return result, err
			}

		case ResolutionKeepBoth:
			if err := imp.commit(ctx, t, result, &snapshot); err != nil {
				return result, err
			}

		case ResolutionCancel:
			imp.log.Info().Int("row", rowNum).Int("committed", len(result.Committed)).
				Msg("import batch cancelled")
			result.Cancelled = true
			return result, ErrBatchCancelled

		default:
			return result, fmt.Errorf("importer: unexpected resolution %v at row %d", resolution, rowNum)
		}
	}

	imp.log.Info().
		Int("committed", len(result.Committed)).
		Int("skipped", len(result.SkippedRows)).
		Int("reimports", result.ExactReimports).
		Msg("import batch complete")
	return result, nil
}

func (imp *Importer) commit(ctx context.Context, t *ledger.Transaction, result *Result, snapshot *[]*ledger.Transaction) error {
	if err := imp.store.InsertTransaction(ctx, t); err != nil {
		return fmt.Errorf("importer: inserting transaction: %w", err)
	}
	result.Committed = append(result.Committed, t)
	*snapshot = append(*snapshot, t)
	return nil
}

func removeByID(txs []*ledger.Transaction, id string) []*ledger.Transaction {
	out := txs[:0]
	for _, t := range txs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
