package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/ledger/internal/importer"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/matcher"
	"github.com/dvloznov/ledger/internal/source"
)

var (
	importFormat  string
	importAccount string
	importPayer   string
	importAuto    bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|gs://bucket/object>",
	Short: "Import a statement file",
	Long: `Import a CSV statement from a local path or a gs:// URI.

Each row is normalized into a transaction, a category is suggested from
the mapping store, and likely duplicates of already-known transactions
are resolved interactively. With --auto every duplicate keeps the
existing record, for scripted runs.

Example:
  ledger import march.csv --format barclays --account barclays-current
  ledger import gs://statements/march.csv --format revolut --account revolut-eur --auto`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "",
		"source format, one of: "+strings.Join(importer.FormatNames(), ", "))
	importCmd.Flags().StringVar(&importAccount, "account", "", "payment account the statement belongs to")
	importCmd.Flags().StringVar(&importPayer, "payer", "", "payer for every imported row")
	importCmd.Flags().BoolVar(&importAuto, "auto", false, "resolve every duplicate by keeping the existing record")

	importCmd.MarkFlagRequired("format")
	importCmd.MarkFlagRequired("account")
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	format, err := importer.LookupFormat(importFormat)
	if err != nil {
		return err
	}
	account := ledger.ParseAccount(importAccount)
	if account == ledger.AccountUnknown {
		return fmt.Errorf("unknown account %q", importAccount)
	}
	payerName := importPayer
	if payerName == "" {
		payerName = a.cfg.DefaultPayer
	}
	payer := ledger.ParsePayer(payerName)

	data, err := source.Read(ctx, args[0])
	if err != nil {
		return err
	}
	rows := importer.ParseRows(data)

	var resolver importer.Resolver = newPromptResolver(os.Stdin, cmd.OutOrStdout())
	if importAuto {
		resolver = autoResolver{}
	}

	imp := importer.New(a.store, matcher.New(a.store, a.log), resolver, a.log)
	result, err := imp.ImportRows(ctx, rows, format, importer.Options{
		Account: account,
		Payer:   payer,
	})
	if result != nil {
		printImportSummary(cmd, args[0], result)
	}
	if errors.Is(err, importer.ErrBatchCancelled) {
		return nil
	}
	return err
}

func printImportSummary(cmd *cobra.Command, uri string, result *importer.Result) {
	cmd.Printf("%s: %d committed, %d skipped, %d exact re-imports\n",
		source.Filename(uri), len(result.Committed), len(result.SkippedRows), result.ExactReimports)
	for _, re := range result.SkippedRows {
		cmd.Printf("  skipped %v\n", re)
	}
	if result.Cancelled {
		cmd.Println("  batch cancelled; committed rows stand")
	}
}
