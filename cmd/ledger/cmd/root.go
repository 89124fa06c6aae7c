// Package cmd provides the CLI commands for the ledger.
package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/ledger/internal/config"
	"github.com/dvloznov/ledger/internal/logger"
	"github.com/dvloznov/ledger/internal/store"
	"github.com/dvloznov/ledger/internal/store/memory"
	"github.com/dvloznov/ledger/internal/store/sqlite"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Import, categorize and reconcile personal bank statements",
	Long: `ledger ingests bank and card statements, normalizes them into a
canonical transaction model, suggests budget categories from a
self-improving mapping store, detects duplicates across repeated imports,
and reconciles account balances against statement-ending balances.

Example:
  ledger import march.csv --format barclays --account barclays-current
  ledger teach "TESCO STORES 1234" food
  ledger reconcile close <id>`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default "+config.DefaultPath+")")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(teachCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
}

// app bundles the collaborators every command needs.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store store.Store
	close func() error
}

// newApp loads configuration and opens the store: SQLite at the configured
// path, or the in-memory store when the path is empty.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		log:   logger.New(cfg.LogLevel),
		close: func() error { return nil },
	}

	if cfg.DBPath == "" {
		a.store = memory.New()
		return a, nil
	}
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.store = db
	a.close = db.Close
	return a, nil
}
