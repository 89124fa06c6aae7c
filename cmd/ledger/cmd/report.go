package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/money"
)

var (
	reportAccount string
	reportFrom    string
	reportTo      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Category totals for an account",
	Long: `Sum postings per budget category for one account, in the account's
native currency. Split transactions contribute to both of their
categories; commissions are charged against the main category.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportAccount, "account", "", "payment account")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "start date, inclusive (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "end date, inclusive (YYYY-MM-DD)")
	reportCmd.MarkFlagRequired("account")
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	account, err := parseAccount(reportAccount)
	if err != nil {
		return err
	}
	from, to, err := parseDateRange(reportFrom, reportTo)
	if err != nil {
		return err
	}

	txs, err := a.store.ListTransactions(cmd.Context())
	if err != nil {
		return err
	}

	var selected []*ledger.Transaction
	for _, t := range txs {
		if t.Account != account {
			continue
		}
		if !from.IsZero() && t.Date.Before(from) {
			continue
		}
		if !to.IsZero() && t.Date.After(to) {
			continue
		}
		selected = append(selected, t)
	}

	totals := ledger.TotalsByCategory(ledger.Decompose(selected))

	categories := make([]ledger.Category, 0, len(totals))
	for c := range totals {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return totals[categories[i]] < totals[categories[j]]
	})

	cur := account.Currency()
	var net int64
	for _, c := range categories {
		cmd.Printf("%-14s %12s\n", c, money.New(totals[c], cur))
		net += totals[c]
	}
	cmd.Printf("%-14s %12s\n", "net", money.New(net, cur))
	return nil
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	var lo, hi time.Time
	var err error
	if from != "" {
		if lo, err = time.Parse("2006-01-02", from); err != nil {
			return lo, hi, fmt.Errorf("bad --from %q, want YYYY-MM-DD", from)
		}
	}
	if to != "" {
		if hi, err = time.Parse("2006-01-02", to); err != nil {
			return lo, hi, fmt.Errorf("bad --to %q, want YYYY-MM-DD", to)
		}
	}
	return lo, hi, nil
}
