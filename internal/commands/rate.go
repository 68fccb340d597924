package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/model"
	"github.com/accrual-dev/accrual/internal/rates"
)

func newRateCommand() *cobra.Command {
	rateCmd := &cobra.Command{
		Use:   "rate",
		Short: "Manage the interest rate schedule",
	}
	rateCmd.AddCommand(newRateAddCommand(), newRateListCommand(), newRateRmCommand())
	return rateCmd
}

func newRateAddCommand() *cobra.Command {
	var repoDir, rate, effective string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an annual rate effective from a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("parsing rate %q: %w", rate, err)
			}
			if effective == "" {
				effective = dates.Today().String()
			}

			p, err := openProject(repoDir)
			if err != nil {
				return err
			}
			defer p.Close()

			added, err := p.store.AddRate(cmd.Context(), model.InterestRate{Rate: r, EffectiveDate: effective})
			if err != nil {
				return err
			}

			if _, err := p.commit(fmt.Sprintf("rate: %s%% from %s", added.Rate, added.EffectiveDate)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added rate %d: %s%% from %s\n", added.ID, added.Rate, added.EffectiveDate)
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&rate, "rate", "", "annual rate in percent, e.g. 5 for 5% (required)")
	_ = cmd.MarkFlagRequired("rate")
	cmd.Flags().StringVar(&effective, "effective", "", "effective date, YYYY-MM-DD (default today)")

	return cmd
}

func newRateListCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the rate schedule and the rate in force today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(repoDir)
			if err != nil {
				return err
			}
			defer p.Close()

			list, err := p.store.Rates(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEFFECTIVE\tRATE (%)")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", strconv.Itoa(r.ID), r.EffectiveDate, r.Rate)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			today := dates.Today().String()
			current, err := rates.CurrentRate(list, today)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nCurrent rate (%s): %s%%\n", today, current)
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	return cmd
}

func newRateRmCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a rate schedule entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("rate id %q: %w", args[0], err)
			}

			p, err := openProject(repoDir)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.store.DeleteRate(cmd.Context(), id); err != nil {
				return err
			}
			if _, err := p.commit(fmt.Sprintf("rate: remove %d", id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed rate %d\n", id)
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	return cmd
}
