// Package reconcile implements the account reconciliation engine: one
// record per account and accounting period holding the statement-ending
// balance, a gap computation explaining it from postings, and the
// open/closed state machine that locks a period's transactions once the
// books balance.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/money"
	"github.com/dvloznov/ledger/internal/store"
)

var (
	// ErrAlreadyClosed is returned by Close on a closed reconciliation.
	ErrAlreadyClosed = errors.New("reconcile: reconciliation is already closed")

	// ErrNotClosed is returned by Reopen on an open reconciliation.
	ErrNotClosed = errors.New("reconcile: reconciliation is not closed")

	// ErrNotClosable is returned by Close when the period fails its
	// pre-close checks; the wrapped message names the failing checks.
	ErrNotClosable = errors.New("reconcile: reconciliation cannot be closed")

	// ErrUndeletable is returned by Delete for a closed period, or for a
	// zero-balance period that a later period depends on as its opening
	// balance.
	ErrUndeletable = errors.New("reconcile: reconciliation cannot be deleted")

	// ErrDuplicatePeriod is returned by Create when the account already has
	// a reconciliation for the given accounting period.
	ErrDuplicatePeriod = errors.New("reconcile: period already exists for account")
)

// Engine drives reconciliation lifecycle for all accounts.
type Engine struct {
	store store.Store
	log   zerolog.Logger
}

func New(s store.Store, log zerolog.Logger) *Engine {
	return &Engine{store: s, log: log}
}

// Report is the result of the pre-close checks for one reconciliation.
type Report struct {
	Reconciliation *ledger.Reconciliation

	// Gap is the unexplained difference between the expected and stated
	// ending balance, in the account's native currency. Magnitudes within
	// one minor unit are coerced to zero to absorb conversion rounding.
	Gap money.Money

	// InvalidTransactions lists owned transactions that fail validation.
	InvalidTransactions []string

	// PredecessorOpen is set when the immediately preceding period for the
	// same account is still open. The baseline period has no predecessor.
	PredecessorOpen bool

	// OwnedTransactions are the transactions attributed to this period:
	// same account, dated after the previous statement and no later than
	// this one.
	OwnedTransactions []*ledger.Transaction
}

// CanClose reports whether the period passes every pre-close check: zero
// gap, all owned transactions valid, predecessor closed.
func (r *Report) CanClose() bool {
	return r.Gap.IsZero() && len(r.InvalidTransactions) == 0 && !r.PredecessorOpen
}

// EnsureBaseline returns the account's synthetic period-zero record,
// creating it if the account has none. The baseline carries a zero balance,
// owns no transactions, and is born closed so the first real period's
// predecessor check passes without ceremony.
func (e *Engine) EnsureBaseline(ctx context.Context, account ledger.Account) (*ledger.Reconciliation, error) {
	if account == ledger.AccountUnknown {
		return nil, fmt.Errorf("reconcile: an account is required")
	}

	recs, err := e.store.ListReconciliations(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: listing reconciliations: %w", err)
	}
	for _, r := range recs {
		if r.Account == account && r.IsBaseline() {
			return r, nil
		}
	}

	base := &ledger.Reconciliation{
		ID:            uuid.NewString(),
		Account:       account,
		StatementDate: ledger.BaselineDate,
		EndingBalance: money.Zero(account.Currency()),
		Closed:        true,
	}
	if err := e.store.InsertReconciliation(ctx, base); err != nil {
		return nil, fmt.Errorf("reconcile: creating baseline for %s: %w", account, err)
	}
	e.log.Info().Str("account", account.String()).Msg("baseline reconciliation created")
	return base, nil
}

// Create opens a new reconciliation for an accounting period, creating the
// account's baseline first if needed. One reconciliation per (account,
// year, month); the ending balance must be in the account's native
// currency.
func (e *Engine) Create(ctx context.Context, account ledger.Account, year int, month time.Month, statementDate time.Time, endingBalance money.Money) (*ledger.Reconciliation, error) {
	if endingBalance.Currency != account.Currency() {
		return nil, fmt.Errorf("reconcile: ending balance is %s but account %s holds %s",
			endingBalance.Currency.Code(), account, account.Currency().Code())
	}
	if _, err := e.EnsureBaseline(ctx, account); err != nil {
		return nil, err
	}

	recs, err := e.store.ListReconciliations(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: listing reconciliations: %w", err)
	}
	for _, r := range recs {
		if r.Account == account && !r.IsBaseline() && r.Year == year && r.Month == month {
			return nil, fmt.Errorf("%w: %s %d-%02d", ErrDuplicatePeriod, account, year, month)
		}
	}

	rec := &ledger.Reconciliation{
		ID:            uuid.NewString(),
		Account:       account,
		Year:          year,
		Month:         month,
		StatementDate: statementDate.UTC().Truncate(24 * time.Hour),
		EndingBalance: endingBalance,
	}
	if err := e.store.InsertReconciliation(ctx, rec); err != nil {
		return nil, fmt.Errorf("reconcile: creating %s %s: %w", account, rec.Period(), err)
	}
	e.log.Info().Str("account", account.String()).Str("period", rec.Period()).
		Msg("reconciliation created")
	return rec, nil
}

// List returns the account's reconciliations sorted by statement date,
// baseline first.
func (e *Engine) List(ctx context.Context, account ledger.Account) ([]*ledger.Reconciliation, error) {
	recs, err := e.store.ListReconciliations(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: listing reconciliations: %w", err)
	}
	return forAccount(recs, account), nil
}

// Check runs the pre-close checks for a reconciliation.
func (e *Engine) Check(ctx context.Context, id string) (*Report, error) {
	recs, err := e.store.ListReconciliations(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: listing reconciliations: %w", err)
	}
	rec := findByID(recs, id)
	if rec == nil {
		return nil, fmt.Errorf("reconcile: reconciliation %s: %w", id, store.ErrNotFound)
	}

	txs, err := e.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: listing transactions: %w", err)
	}

	prev := predecessor(recs, rec)
	owned := ownedTransactions(rec, prev, txs)

	report := &Report{
		Reconciliation:    rec,
		Gap:               gap(rec, prev, owned),
		PredecessorOpen:   prev != nil && !prev.Closed,
		OwnedTransactions: owned,
	}
	for _, t := range owned {
		if !t.IsValid() {
			report.InvalidTransactions = append(report.InvalidTransactions, t.ID)
		}
	}
	return report, nil
}

// Gap computes the unexplained balance difference for a reconciliation.
func (e *Engine) Gap(ctx context.Context, id string) (money.Money, error) {
	report, err := e.Check(ctx, id)
	if err != nil {
		return money.Money{}, err
	}
	return report.Gap, nil
}

// Close marks the reconciliation and every transaction it owns as closed,
// atomically. Refused unless the pre-close checks pass.
func (e *Engine) Close(ctx context.Context, id string) error {
	report, err := e.Check(ctx, id)
	if err != nil {
		return err
	}
	rec := report.Reconciliation
	if rec.Closed {
		return fmt.Errorf("%s: %w", rec.Period(), ErrAlreadyClosed)
	}
	if !report.CanClose() {
		return fmt.Errorf("%w: %s", ErrNotClosable, closeRefusal(report))
	}

	err = e.store.RunInTransaction(ctx, func(s store.Store) error {
		rec.Closed = true
		if err := s.UpdateReconciliation(ctx, rec); err != nil {
			return err
		}
		for _, t := range report.OwnedTransactions {
			t.Closed = true
			if err := s.UpdateTransaction(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reconcile: closing %s %s: %w", rec.Account, rec.Period(), err)
	}

	e.log.Info().Str("account", rec.Account.String()).Str("period", rec.Period()).
		Int("locked", len(report.OwnedTransactions)).Msg("reconciliation closed")
	return nil
}

// Reopen reverts a close: the reconciliation and every transaction it owns
// become open again, atomically. Permitted regardless of later periods'
// state; a later closed period keeps its own lock on its own transactions.
func (e *Engine) Reopen(ctx context.Context, id string) error {
	report, err := e.Check(ctx, id)
	if err != nil {
		return err
	}
	rec := report.Reconciliation
	if !rec.Closed {
		return fmt.Errorf("%s: %w", rec.Period(), ErrNotClosed)
	}

	err = e.store.RunInTransaction(ctx, func(s store.Store) error {
		rec.Closed = false
		if err := s.UpdateReconciliation(ctx, rec); err != nil {
			return err
		}
		for _, t := range report.OwnedTransactions {
			t.Closed = false
			if err := s.UpdateTransaction(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reconcile: reopening %s %s: %w", rec.Account, rec.Period(), err)
	}

	e.log.Info().Str("account", rec.Account.String()).Str("period", rec.Period()).
		Int("unlocked", len(report.OwnedTransactions)).Msg("reconciliation reopened")
	return nil
}

// CanDelete reports whether the reconciliation may be removed: it must be
// open, and a zero-balance period with a later period behind it stays — a
// later period implicitly treats it as its opening balance, and removing it
// would silently shift every later gap.
func (e *Engine) CanDelete(ctx context.Context, id string) (bool, error) {
	recs, err := e.store.ListReconciliations(ctx)
	if err != nil {
		return false, fmt.Errorf("reconcile: listing reconciliations: %w", err)
	}
	rec := findByID(recs, id)
	if rec == nil {
		return false, fmt.Errorf("reconcile: reconciliation %s: %w", id, store.ErrNotFound)
	}
	return canDelete(recs, rec), nil
}

// Delete removes an open reconciliation, subject to CanDelete.
func (e *Engine) Delete(ctx context.Context, id string) error {
	recs, err := e.store.ListReconciliations(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: listing reconciliations: %w", err)
	}
	rec := findByID(recs, id)
	if rec == nil {
		return fmt.Errorf("reconcile: reconciliation %s: %w", id, store.ErrNotFound)
	}
	if !canDelete(recs, rec) {
		return fmt.Errorf("%w: %s %s", ErrUndeletable, rec.Account, rec.Period())
	}
	if err := e.store.DeleteReconciliation(ctx, id); err != nil {
		return fmt.Errorf("reconcile: deleting %s %s: %w", rec.Account, rec.Period(), err)
	}
	e.log.Info().Str("account", rec.Account.String()).Str("period", rec.Period()).
		Msg("reconciliation deleted")
	return nil
}

func canDelete(recs []*ledger.Reconciliation, rec *ledger.Reconciliation) bool {
	if rec.Closed {
		return false
	}
	if rec.EndingBalance.IsZero() && laterExists(recs, rec) {
		return false
	}
	return true
}

func laterExists(recs []*ledger.Reconciliation, rec *ledger.Reconciliation) bool {
	for _, r := range recs {
		if r.Account == rec.Account && r.StatementDate.After(rec.StatementDate) {
			return true
		}
	}
	return false
}

// gap = previous period's ending balance + signed posting sum − this
// period's ending balance, all in minor units of the account currency.
// Postings carry debits negative and credits positive, so a fully explained
// period lands on zero. One minor unit of slack absorbs conversion rounding.
func gap(rec, prev *ledger.Reconciliation, owned []*ledger.Transaction) money.Money {
	var prevBalance int64
	if prev != nil {
		prevBalance = prev.EndingBalance.MinorUnits
	}
	sum := ledger.SumBase(ledger.Decompose(owned))
	g := prevBalance + sum - rec.EndingBalance.MinorUnits
	if g >= -1 && g <= 1 {
		g = 0
	}
	return money.New(g, rec.Account.Currency())
}

func ownedTransactions(rec, prev *ledger.Reconciliation, txs []*ledger.Transaction) []*ledger.Transaction {
	var prevDate time.Time
	if prev != nil {
		prevDate = prev.StatementDate
	}
	var owned []*ledger.Transaction
	for _, t := range txs {
		if rec.Owns(t, prevDate) {
			owned = append(owned, t)
		}
	}
	return owned
}

// predecessor finds the same-account reconciliation with the latest
// statement date strictly before rec's. Nil for the baseline.
func predecessor(recs []*ledger.Reconciliation, rec *ledger.Reconciliation) *ledger.Reconciliation {
	var prev *ledger.Reconciliation
	for _, r := range recs {
		if r.Account != rec.Account || r.ID == rec.ID {
			continue
		}
		if !r.StatementDate.Before(rec.StatementDate) {
			continue
		}
		if prev == nil || r.StatementDate.After(prev.StatementDate) {
			prev = r
		}
	}
	return prev
}

func forAccount(recs []*ledger.Reconciliation, account ledger.Account) []*ledger.Reconciliation {
	var out []*ledger.Reconciliation
	for _, r := range recs {
		if r.Account == account {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StatementDate.Before(out[j].StatementDate)
	})
	return out
}

func findByID(recs []*ledger.Reconciliation, id string) *ledger.Reconciliation {
	for _, r := range recs {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func closeRefusal(report *Report) string {
	var reasons []string
	if !report.Gap.IsZero() {
		reasons = append(reasons, fmt.Sprintf("gap of %s remains", report.Gap))
	}
	if n := len(report.InvalidTransactions); n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d owned transactions are invalid", n))
	}
	if report.PredecessorOpen {
		reasons = append(reasons, "previous period is still open")
	}
	if len(reasons) == 0 {
		return "not closable"
	}
	return joinReasons(reasons)
}

func joinReasons(reasons []string) string {
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}
