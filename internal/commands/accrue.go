package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accrual-dev/accrual/internal/dates"
)

func newAccrueCommand() *cobra.Command {
	var repoDir, through string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "accrue",
		Short: "Record monthly interest compounding as interest transactions",
		Long: "Finds every month-end where interest compounds and whose posting date\n" +
			"(the first of the next month) is on or before --through, and records each\n" +
			"as an interest transaction. Months already recorded are skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			end, err := parseDay(through)
			if err != nil {
				return err
			}

			p, err := openProject(repoDir)
			if err != nil {
				return err
			}
			defer p.Close()

			postings, err := p.svc.Accrue(cmd.Context(), end, dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(postings) == 0 {
				fmt.Fprintln(out, "No interest to record")
				return nil
			}
			for _, tx := range postings {
				id := tx.ID
				if id == "" {
					id = "(dry run)"
				}
				fmt.Fprintf(out, "%s  %s  %s  %s\n", id, tx.Date, tx.Amount.StringFixed(2), tx.Description)
			}
			if dryRun {
				return nil
			}

			hash, err := p.commit(fmt.Sprintf("accrue: record interest through %s", dates.FormatDateLocal(end)))
			if err != nil {
				return err
			}
			if hash != "" {
				fmt.Fprintf(out, "Committed %s\n", hash)
			}
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&through, "through", "", "last posting date to record, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show postings without recording them")

	return cmd
}
