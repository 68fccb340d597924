package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accrual-dev/accrual/internal/dates"
)

func newBalanceCommand() *cobra.Command {
	var repoDir, date string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show principal, accrued interest and balance on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseDay(date)
			if err != nil {
				return err
			}

			p, err := openProject(repoDir)
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.svc.Balance(cmd.Context(), target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Account:           %s\n", p.cfg.Account.Name)
			fmt.Fprintf(out, "Date:              %s\n", dates.FormatDateLocal(target))
			fmt.Fprintf(out, "Principal:         %s\n", res.Principal.StringFixed(2))
			fmt.Fprintf(out, "Accrued interest:  %s\n", res.AccruedInterest.StringFixed(2))
			fmt.Fprintf(out, "Balance:           %s\n", res.Balance.StringFixed(2))
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&date, "date", "", "date to report on, YYYY-MM-DD (default today)")

	return cmd
}
