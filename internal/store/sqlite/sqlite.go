package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/money"
	"github.com/dvloznov/ledger/internal/store"
)

const dateLayout = "2006-01-02"

// querier is satisfied by both *sql.DB and *sql.Tx, so the same query code
// serves autocommit calls and calls inside RunInTransaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store implements store.Store over a SQLite database.
type Store struct {
	db *sql.DB
	q  querier
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions(ctx context.Context) ([]*ledger.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, tx_date, created_at, payer, account, amount_minor, currency,
		       direction, rate_scaled, commission_minor, category, payee,
		       reference, split_minor, split_category, closed, pair_id
		FROM transactions
		ORDER BY tx_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list transactions: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(rows *sql.Rows) (*ledger.Transaction, error) {
	var (
		t                              ledger.Transaction
		txDate, createdAt              string
		payer, account, direction      string
		currency, category, splitCat   string
		amountMinor, commissionMinor   int64
		rateScaled, splitMinor, closed int64
	)
	err := rows.Scan(&t.ID, &txDate, &createdAt, &payer, &account, &amountMinor,
		&currency, &direction, &rateScaled, &commissionMinor, &category,
		&t.Payee, &t.Reference, &splitMinor, &splitCat, &closed, &t.PairID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan transaction: %w", err)
	}

	t.Date, err = time.Parse(dateLayout, txDate)
	if err != nil {
		return nil, fmt.Errorf("sqlite: transaction %s: bad tx_date %q: %w", t.ID, txDate, err)
	}
	t.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: transaction %s: bad created_at %q: %w", t.ID, createdAt, err)
	}

	cur := money.ParseCurrency(currency)
	t.Payer = ledger.ParsePayer(payer)
	t.Account = ledger.ParseAccount(account)
	t.Amount = money.New(amountMinor, cur)
	t.Direction = ledger.ParseDirection(direction)
	t.Rate = money.NewRateScaled(rateScaled)
	t.Commission = money.New(commissionMinor, t.Account.Currency())
	t.Category = ledger.ParseCategory(category)
	t.SplitAmount = money.New(splitMinor, cur)
	t.SplitCategory = ledger.ParseCategory(splitCat)
	t.Closed = closed != 0
	return &t, nil
}

func transactionArgs(t *ledger.Transaction) []interface{} {
	closed := 0
	if t.Closed {
		closed = 1
	}
	return []interface{}{
		t.ID,
		t.Date.Format(dateLayout),
		t.CreatedAt.Format(time.RFC3339),
		t.Payer.String(),
		t.Account.String(),
		t.Amount.MinorUnits,
		t.Amount.Currency.Code(),
		t.Direction.String(),
		t.Rate.Scaled,
		t.Commission.MinorUnits,
		t.Category.String(),
		t.Payee,
		t.Reference,
		t.SplitAmount.MinorUnits,
		t.SplitCategory.String(),
		closed,
		t.PairID,
	}
}

// InsertTransaction implements store.Store.
func (s *Store) InsertTransaction(ctx context.Context, t *ledger.Transaction) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions (
			id, tx_date, created_at, payer, account, amount_minor, currency,
			direction, rate_scaled, commission_minor, category, payee,
			reference, split_minor, split_category, closed, pair_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, transactionArgs(t)...)
	if err != nil {
		return fmt.Errorf("sqlite: insert transaction %s: %w", t.ID, err)
	}
	return nil
}

// UpdateTransaction implements store.Store.
func (s *Store) UpdateTransaction(ctx context.Context, t *ledger.Transaction) error {
	if t.Closed {
		locked, err := s.transactionLocked(ctx, t.ID)
		if err != nil {
			return err
		}
		if locked {
			return fmt.Errorf("sqlite: transaction %s: %w", t.ID, store.ErrLocked)
		}
	}
	args := transactionArgs(t)
	// Move the id to the WHERE position.
	args = append(args[1:], args[0])
	res, err := s.q.ExecContext(ctx, `
		UPDATE transactions SET
			tx_date = ?, created_at = ?, payer = ?, account = ?,
			amount_minor = ?, currency = ?, direction = ?, rate_scaled = ?,
			commission_minor = ?, category = ?, payee = ?, reference = ?,
			split_minor = ?, split_category = ?, closed = ?, pair_id = ?
		WHERE id = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: update transaction %s: %w", t.ID, err)
	}
	return requireRow(res, "transaction", t.ID)
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	locked, err := s.transactionLocked(ctx, id)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("sqlite: transaction %s: %w", id, store.ErrLocked)
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete transaction %s: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

// transactionLocked reports whether the stored row is owned by a closed
// reconciliation. Missing rows report unlocked; the caller's statement will
// surface ErrNotFound.
func (s *Store) transactionLocked(ctx context.Context, id string) (bool, error) {
	var closed int64
	err := s.q.QueryRowContext(ctx,
		`SELECT closed FROM transactions WHERE id = ?`, id).Scan(&closed)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking lock on transaction %s: %w", id, err)
	}
	return closed != 0, nil
}

// ListMappings implements store.Store.
func (s *Store) ListMappings(ctx context.Context) ([]*ledger.CategoryMapping, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT key, category, use_count FROM category_mappings ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list mappings: %w", err)
	}
	defer rows.Close()

	var out []*ledger.CategoryMapping
	for rows.Next() {
		var m ledger.CategoryMapping
		var category string
		if err := rows.Scan(&m.Key, &category, &m.UseCount); err != nil {
			return nil, fmt.Errorf("sqlite: scan mapping: %w", err)
		}
		m.Category = ledger.ParseCategory(category)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list mappings: %w", err)
	}
	return out, nil
}

// UpsertMapping implements store.Store.
func (s *Store) UpsertMapping(ctx context.Context, m *ledger.CategoryMapping) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO category_mappings (key, category, use_count)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET category = excluded.category,
		                               use_count = excluded.use_count
	`, m.Key, m.Category.String(), m.UseCount)
	if err != nil {
		return fmt.Errorf("sqlite: upsert mapping %q: %w", m.Key, err)
	}
	return nil
}

// ListReconciliations implements store.Store.
func (s *Store) ListReconciliations(ctx context.Context) ([]*ledger.Reconciliation, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, account, year, month, statement_date, balance_minor, currency, closed
		FROM reconciliations
		ORDER BY account, statement_date
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list reconciliations: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Reconciliation
	for rows.Next() {
		var (
			r                 ledger.Reconciliation
			account, currency string
			stmtDate          string
			month, closed     int64
			balanceMinor      int64
		)
		if err := rows.Scan(&r.ID, &account, &r.Year, &month, &stmtDate,
			&balanceMinor, &currency, &closed); err != nil {
			return nil, fmt.Errorf("sqlite: scan reconciliation: %w", err)
		}
		r.Account = ledger.ParseAccount(account)
		r.Month = time.Month(month)
		r.StatementDate, err = time.Parse(dateLayout, stmtDate)
		if err != nil {
			return nil, fmt.Errorf("sqlite: reconciliation %s: bad statement_date %q: %w", r.ID, stmtDate, err)
		}
		r.EndingBalance = money.New(balanceMinor, money.ParseCurrency(currency))
		r.Closed = closed != 0
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list reconciliations: %w", err)
	}
	return out, nil
}

func reconciliationArgs(r *ledger.Reconciliation) []interface{} {
	closed := 0
	if r.Closed {
		closed = 1
	}
	return []interface{}{
		r.ID,
		r.Account.String(),
		r.Year,
		int(r.Month),
		r.StatementDate.Format(dateLayout),
		r.EndingBalance.MinorUnits,
		r.EndingBalance.Currency.Code(),
		closed,
	}
}

// InsertReconciliation implements store.Store.
func (s *Store) InsertReconciliation(ctx context.Context, r *ledger.Reconciliation) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO reconciliations (
			id, account, year, month, statement_date, balance_minor, currency, closed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, reconciliationArgs(r)...)
	if err != nil {
		return fmt.Errorf("sqlite: insert reconciliation %s: %w", r.ID, err)
	}
	return nil
}

// UpdateReconciliation implements store.Store.
func (s *Store) UpdateReconciliation(ctx context.Context, r *ledger.Reconciliation) error {
	args := reconciliationArgs(r)
	args = append(args[1:], args[0])
	res, err := s.q.ExecContext(ctx, `
		UPDATE reconciliations SET
			account = ?, year = ?, month = ?, statement_date = ?,
			balance_minor = ?, currency = ?, closed = ?
		WHERE id = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: update reconciliation %s: %w", r.ID, err)
	}
	return requireRow(res, "reconciliation", r.ID)
}

// DeleteReconciliation implements store.Store.
func (s *Store) DeleteReconciliation(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM reconciliations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete reconciliation %s: %w", id, err)
	}
	return requireRow(res, "reconciliation", id)
}

// RunInTransaction implements store.Store. fn receives a Store bound to a
// database transaction; returning an error rolls everything back.
func (s *Store) RunInTransaction(ctx context.Context, fn func(store.Store) error) error {
	if s.db == nil {
		// Already inside a transaction; SQLite has no nesting, so run flat.
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit transaction: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: %s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}
