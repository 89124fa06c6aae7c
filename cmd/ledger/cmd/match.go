package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/matcher"
)

var matchCmd = &cobra.Command{
	Use:   "match <payee>",
	Short: "Suggest a budget category for a payee string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		category := matcher.New(a.store, a.log).Match(cmd.Context(), args[0])
		cmd.Println(category)
		return nil
	},
}

var teachCmd = &cobra.Command{
	Use:   "teach <payee> <category>",
	Short: "Teach the matcher a payee-to-category mapping",
	Long: `Teach the matcher that a payee belongs to a category. The mapping is
stored under the payee's normalized key, and every uncategorized
transaction that now matches is reclassified.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		category := ledger.ParseCategory(args[1])
		if category == ledger.CategoryUnknown {
			return fmt.Errorf("unknown category %q, one of: %s", args[1], categoryNames())
		}
		if err := matcher.New(a.store, a.log).Teach(cmd.Context(), args[0], category); err != nil {
			return err
		}
		cmd.Printf("%q -> %s\n", args[0], category)
		return nil
	},
}

func categoryNames() string {
	var names []string
	for _, c := range ledger.Categories() {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}
