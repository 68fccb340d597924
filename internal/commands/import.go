package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/accrual-dev/accrual/internal/importer"
	"github.com/accrual-dev/accrual/internal/ledger"
	"github.com/accrual-dev/accrual/internal/model"
)

func newImportCommand() *cobra.Command {
	var repoDir, format string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import statement CSVs from the import/ directory",
		Long: "Parses every CSV in <repo>/import with the chosen format, appends the\n" +
			"transactions to the ledger and moves each file to import/processed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := importer.DefaultRegistry()
			parser := reg.Get(format)
			if parser == nil {
				formats := reg.Formats()
				sort.Strings(formats)
				return fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(formats, ", "))
			}

			p, err := openProject(repoDir)
			if err != nil {
				return err
			}
			defer p.Close()

			files, err := importer.Scan(p.dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No files to import")
				return nil
			}

			// Parse and validate everything first so a bad file writes nothing.
			parsed := make([][]model.Transaction, len(files))
			for i, f := range files {
				txs, err := importer.ParseFile(parser, f.Path)
				if err != nil {
					return err
				}
				if err := ledger.CheckTransactions(txs); err != nil {
					return fmt.Errorf("%s: %w", f.Name, err)
				}
				parsed[i] = txs
				if dryRun {
					fmt.Fprintf(out, "%s: %d transactions (dry run)\n", f.Name, len(txs))
				}
			}
			if dryRun {
				return nil
			}

			total, imported := 0, 0
			var importErr error
			for i, f := range files {
				added, err := p.store.AddTransactions(cmd.Context(), parsed[i]...)
				if err != nil {
					importErr = fmt.Errorf("importing %s: %w", f.Name, err)
					break
				}
				total += len(added)
				imported++
				if err := importer.MarkProcessed(p.dir, f.Name); err != nil {
					importErr = fmt.Errorf("%s was imported but not moved, remove it before the next import: %w", f.Name, err)
					break
				}
				p.log.WithField("file", f.Name).WithField("transactions", len(added)).Info("Import.File")
				fmt.Fprintf(out, "%s: %d transactions\n", f.Name, len(added))
			}
			if imported == 0 {
				return importErr
			}

			// Whatever reached the ledger is committed, even on failure.
			_, err = p.commit(fmt.Sprintf("import: %d transactions from %d files", total, imported), importer.Dir)
			return errors.Join(importErr, err)
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&format, "format", "chase", "statement format")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse files without recording them")

	return cmd
}
