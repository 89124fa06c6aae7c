package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/money"
	"github.com/dvloznov/ledger/internal/reconcile"
)

var (
	reconcileAccount string
	createYear       int
	createMonth      int
	createDate       string
	createBalance    string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Manage reconciliation periods",
	Long: `Reconcile account balances against statement-ending balances over
monthly accounting periods. A period closes only when its gap is zero,
every owned transaction is valid, and the previous period is closed;
closing locks the owned transactions against edits until the period is
reopened.`,
}

var reconcileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an account's reconciliation periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()

		account, err := parseAccount(reconcileAccount)
		if err != nil {
			return err
		}
		engine := reconcile.New(a.store, a.log)
		recs, err := engine.List(ctx, account)
		if err != nil {
			return err
		}

		for _, r := range recs {
			state := "open"
			if r.Closed {
				state = "closed"
			}
			report, err := engine.Check(ctx, r.ID)
			if err != nil {
				return err
			}
			cmd.Printf("%s  %-8s  %-6s  ending %s  gap %s  (%d transactions)\n",
				r.ID, r.Period(), state, r.EndingBalance, report.Gap, len(report.OwnedTransactions))
		}
		return nil
	},
}

var reconcileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new reconciliation period",
	Example: `  ledger reconcile create --account barclays-current \
    --year 2026 --month 3 --date 2026-03-31 --balance 1250.00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		account, err := parseAccount(reconcileAccount)
		if err != nil {
			return err
		}
		if createMonth < 1 || createMonth > 12 {
			return fmt.Errorf("month %d out of range", createMonth)
		}
		statementDate, err := time.Parse("2006-01-02", createDate)
		if err != nil {
			return fmt.Errorf("bad --date %q, want YYYY-MM-DD", createDate)
		}
		balance, err := decimal.NewFromString(createBalance)
		if err != nil {
			return fmt.Errorf("bad --balance %q: %w", createBalance, err)
		}

		rec, err := reconcile.New(a.store, a.log).Create(cmd.Context(), account,
			createYear, time.Month(createMonth), statementDate,
			money.FromDecimal(balance, account.Currency()))
		if err != nil {
			return err
		}
		cmd.Printf("%s  %s  ending %s\n", rec.ID, rec.Period(), rec.EndingBalance)
		return nil
	},
}

var reconcileGapCmd = &cobra.Command{
	Use:   "gap <id>",
	Short: "Show the unexplained balance difference for a period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		report, err := reconcile.New(a.store, a.log).Check(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Printf("gap %s over %d transactions\n", report.Gap, len(report.OwnedTransactions))
		if n := len(report.InvalidTransactions); n > 0 {
			cmd.Printf("%d owned transactions are invalid: %v\n", n, report.InvalidTransactions)
		}
		if report.PredecessorOpen {
			cmd.Println("previous period is still open")
		}
		if report.CanClose() {
			cmd.Println("ready to close")
		}
		return nil
	},
}

var reconcileCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a period and lock its transactions",
	Args:  cobra.ExactArgs(1),
	RunE:  reconcileTransition((*reconcile.Engine).Close, "closed"),
}

var reconcileReopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Reopen a closed period and unlock its transactions",
	Args:  cobra.ExactArgs(1),
	RunE:  reconcileTransition((*reconcile.Engine).Reopen, "reopened"),
}

var reconcileDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an open period",
	Args:  cobra.ExactArgs(1),
	RunE:  reconcileTransition((*reconcile.Engine).Delete, "deleted"),
}

func reconcileTransition(op func(*reconcile.Engine, context.Context, string) error, verb string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := op(reconcile.New(a.store, a.log), cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("%s %s\n", args[0], verb)
		return nil
	}
}

func parseAccount(name string) (ledger.Account, error) {
	account := ledger.ParseAccount(name)
	if account == ledger.AccountUnknown {
		return account, fmt.Errorf("unknown account %q", name)
	}
	return account, nil
}

func init() {
	reconcileCmd.PersistentFlags().StringVar(&reconcileAccount, "account", "", "payment account")

	reconcileCreateCmd.Flags().IntVar(&createYear, "year", 0, "accounting year")
	reconcileCreateCmd.Flags().IntVar(&createMonth, "month", 0, "accounting month (1-12)")
	reconcileCreateCmd.Flags().StringVar(&createDate, "date", "", "statement date (YYYY-MM-DD)")
	reconcileCreateCmd.Flags().StringVar(&createBalance, "balance", "", "statement ending balance")
	reconcileCreateCmd.MarkFlagRequired("year")
	reconcileCreateCmd.MarkFlagRequired("month")
	reconcileCreateCmd.MarkFlagRequired("date")
	reconcileCreateCmd.MarkFlagRequired("balance")

	reconcileCmd.AddCommand(reconcileListCmd)
	reconcileCmd.AddCommand(reconcileCreateCmd)
	reconcileCmd.AddCommand(reconcileGapCmd)
	reconcileCmd.AddCommand(reconcileCloseCmd)
	reconcileCmd.AddCommand(reconcileReopenCmd)
	reconcileCmd.AddCommand(reconcileDeleteCmd)
}
