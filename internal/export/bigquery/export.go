// Package bigquery exports committed transactions to a BigQuery table for
// analytics. The export is append-only and optional; the ledger itself
// never reads from BigQuery.
package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger/internal/config"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/money"
)

// TransactionRow is the BigQuery schema of one exported transaction.
// Amounts are NUMERIC, signed the same way postings are: debits negative,
// credits positive.
type TransactionRow struct {
	TransactionID   string     `bigquery:"transaction_id"`
	TransactionDate civil.Date `bigquery:"transaction_date"`

	Payer   string `bigquery:"payer"`
	Account string `bigquery:"account"`

	Amount   *big.Rat `bigquery:"amount"`
	Currency string   `bigquery:"currency"`

	// BaseAmount is the full signed balance effect in the account's native
	// currency, commission included.
	BaseAmount   *big.Rat `bigquery:"base_amount"`
	BaseCurrency string   `bigquery:"base_currency"`

	Direction  string   `bigquery:"direction"`
	Rate       *big.Rat `bigquery:"rate"`
	Commission *big.Rat `bigquery:"commission"`

	Category      string              `bigquery:"category"`
	Payee         string              `bigquery:"payee"`
	Reference     bigquery.NullString `bigquery:"reference"`
	SplitAmount   *big.Rat            `bigquery:"split_amount"`
	SplitCategory bigquery.NullString `bigquery:"split_category"`

	Closed bool                `bigquery:"closed"`
	PairID bigquery.NullString `bigquery:"pair_id"`

	CreatedTS  time.Time `bigquery:"created_ts"`
	ExportedTS time.Time `bigquery:"exported_ts"`
}

// Exporter holds a shared BigQuery client so batch exports reuse one
// connection.
type Exporter struct {
	client *bigquery.Client
	cfg    config.BigQueryConfig
	log    zerolog.Logger
}

// NewExporter creates an Exporter using Application Default Credentials.
func NewExporter(ctx context.Context, cfg config.BigQueryConfig, log zerolog.Logger) (*Exporter, error) {
	client, err := bigquery.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: creating client: %w", err)
	}
	return &Exporter{client: client, cfg: cfg, log: log}, nil
}

// Close releases the underlying client.
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Export appends the transactions to the configured table.
func (e *Exporter) Export(ctx context.Context, txs []*ledger.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, rowFromTransaction(t, now))
	}

	table := e.client.DatasetInProject(e.cfg.ProjectID, e.cfg.Dataset).Table(e.cfg.Table)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("Export: inserting %d rows: %w", len(rows), err)
	}

	e.log.Info().Int("rows", len(rows)).
		Str("table", fmt.Sprintf("%s.%s.%s", e.cfg.ProjectID, e.cfg.Dataset, e.cfg.Table)).
		Msg("transactions exported")
	return nil
}

func rowFromTransaction(t *ledger.Transaction, exportedAt time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   t.ID,
		TransactionDate: civil.DateOf(t.Date),
		Payer:           t.Payer.String(),
		Account:         t.Account.String(),
		Amount:          moneyRat(t.Signed()),
		Currency:        t.Currency().Code(),
		BaseAmount:      moneyRat(t.SignedBaseTotal()),
		BaseCurrency:    t.Account.Currency().Code(),
		Direction:       t.Direction.String(),
		Rate:            big.NewRat(t.Rate.Scaled, 10000),
		Commission:      moneyRat(t.Commission),
		Category:        t.Category.String(),
		Payee:           t.Payee,
		SplitAmount:     moneyRat(t.SplitAmount),
		Closed:          t.Closed,
		CreatedTS:       t.CreatedAt.UTC(),
		ExportedTS:      exportedAt,
	}
	if t.Reference != "" {
		row.Reference = bigquery.NullString{StringVal: t.Reference, Valid: true}
	}
	if t.IsSplit() {
		row.SplitCategory = bigquery.NullString{StringVal: t.SplitCategory.String(), Valid: true}
	}
	if t.PairID != "" {
		row.PairID = bigquery.NullString{StringVal: t.PairID, Valid: true}
	}
	return row
}

// moneyRat renders minor units as an exact NUMERIC value.
func moneyRat(m money.Money) *big.Rat {
	return big.NewRat(m.MinorUnits, 100)
}
