package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accrual-dev/accrual/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "accrual",
		Short:   "Daily interest accrual for a git-tracked account ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newBalanceCommand(),
		newTxCommand(),
		newRateCommand(),
		newAccrueCommand(),
		newExportCommand(),
		newImportCommand(),
	)

	return rootCmd
}
