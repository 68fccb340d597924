package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	var repoDir, through, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the day-by-day accrual report as CSV",
		Args:  cobra.NoArgs,
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

			if outPath == "" {
				return p.svc.Export(cmd.Context(), cmd.OutOrStdout(), end)
			}

			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			if err := p.svc.Export(cmd.Context(), f, end); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&through, "through", "", "last day of the report, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	return cmd
}
