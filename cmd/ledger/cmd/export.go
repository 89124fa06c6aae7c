package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dvloznov/ledger/internal/export/bigquery"
	"github.com/dvloznov/ledger/internal/ledger"
)

var exportClosedOnly bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export transactions to BigQuery",
	Long: `Append every transaction to the configured BigQuery table for
analytics. Requires bigquery.project_id, bigquery.dataset and
bigquery.table in the configuration, and Application Default Credentials.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportClosedOnly, "closed-only", false,
		"export only transactions locked by a closed reconciliation")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	if err := a.cfg.ValidateExport(); err != nil {
		return err
	}

	txs, err := a.store.ListTransactions(ctx)
	if err != nil {
		return err
	}
	if exportClosedOnly {
		var closed []*ledger.Transaction
		for _, t := range txs {
			if t.Closed {
				closed = append(closed, t)
			}
		}
		txs = closed
	}

	exporter, err := bigquery.NewExporter(ctx, a.cfg.BigQuery, a.log)
	if err != nil {
		return err
	}
	defer exporter.Close()

	if err := exporter.Export(ctx, txs); err != nil {
		return err
	}
	cmd.Printf("exported %d transactions\n", len(txs))
	return nil
}
