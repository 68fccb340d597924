package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/model"
)

func newTxCommand() *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage ledger transactions",
	}
	txCmd.AddCommand(newTxAddCommand(), newTxListCommand(), newTxRmCommand())
	return txCmd
}

func newTxAddCommand() *cobra.Command {
	var repoDir, typ, amount, date, description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a deposit, withdrawal or interest transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("parsing amount %q: %w", amount, err)
			}
			if date == "" {
				date = dates.Today().String()
			}

			p, err := openProject(repoDir)
			if err != nil {
				return err
			}
			defer p.Close()

			added, err := p.store.AddTransactions(cmd.Context(), model.Transaction{
				Type:        model.TransactionType(typ),
				Amount:      amt,
				Date:        date,
				Description: description,
			})
			if err != nil {
				return err
			}
			tx := added[0]

			if _, err := p.commit(fmt.Sprintf("tx: add %s %s %s on %s", tx.ID, tx.Type, tx.Amount.StringFixed(2), tx.Date)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s %s on %s\n", tx.ID, tx.Type, tx.Amount.StringFixed(2), tx.Date)
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&typ, "type", string(model.TypeDeposit), "deposit, withdrawal or interest")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, at most 2 decimal places (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&date, "date", "", "effective date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&description, "description", "", "free text")

	return cmd
}

func newTxListCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions in date order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(repoDir)
			if err != nil {
				return err
			}
			defer p.Close()

			txs, err := p.store.Transactions(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tDESCRIPTION")
			for _, tx := range txs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tx.ID, tx.Date, tx.Type, tx.Amount.StringFixed(2), tx.Description)
			}
			return tw.Flush()
		},
	}

	addRepoFlag(cmd, &repoDir)
	return cmd
}

func newTxRmCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(repoDir)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.store.DeleteTransaction(cmd.Context(), args[0]); err != nil {
				return err
			}
			if _, err := p.commit("tx: remove " + args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	return cmd
}
