package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/accrual-dev/accrual/internal/config"
	"github.com/accrual-dev/accrual/internal/gitops"
	"github.com/accrual-dev/accrual/internal/importer"
	"github.com/accrual-dev/accrual/internal/ledger"
)

func newInitCommand() *cobra.Command {
	var name string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new accrual project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			hash, err := runInit(absDir, name, !noGit)
			if err != nil {
				return err
			}
			if hash != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized accrual project at %s (%s)\n", absDir, hash)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized accrual project at %s\n", absDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "skip git init and the initial commit")

	return cmd
}

func runInit(dir, name string, useGit bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	if _, err := os.Stat(config.Path(dir)); err == nil {
		return "", fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	// Write accrual.yaml.
	cfg := config.Default(name)
	if err := config.Save(config.Path(dir), cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	// Write empty ledger files.
	if err := ledger.NewFileStore(dir).Init(); err != nil {
		return "", fmt.Errorf("writing ledger: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.MkdirAll(filepath.Join(dir, importer.Dir), 0o755); err != nil {
		return "", fmt.Errorf("creating import dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, importer.Dir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return "", fmt.Errorf("writing .gitkeep: %w", err)
	}

	// Write .gitignore.
	gitignore := ".env\nexports/\n*.db-journal\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}

	if !useGit {
		return "", nil
	}

	// Initialize git and create initial commit.
	repo := gitops.Repo{Dir: dir, AuthorName: cfg.Git.AuthorName, AuthorEmail: cfg.Git.AuthorEmail}
	if !gitops.IsRepo(dir) {
		if err := repo.Init(); err != nil {
			return "", err
		}
	}
	hash, err := repo.Commit("init: Initialize " + name)
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return hash, nil
}
