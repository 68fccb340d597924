package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/accrual-dev/accrual/internal/balance"
	"github.com/accrual-dev/accrual/internal/config"
	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/gitops"
	"github.com/accrual-dev/accrual/internal/ledger"
	"github.com/accrual-dev/accrual/internal/logging"
	"github.com/accrual-dev/accrual/internal/storage/sqlite"
)

// project is an opened accrual repository.
type project struct {
	dir   string
	cfg   *config.Config
	log   *logrus.Logger
	store ledger.Store
	svc   *balance.Service
	// ledgerPaths are the files a ledger change touches, relative to dir.
	ledgerPaths []string
}

func addRepoFlag(cmd *cobra.Command, repoDir *string) {
	cmd.Flags().StringVar(repoDir, "repo", ".", "repository directory")
}

func openProject(repoDir string) (*project, error) {
	dir, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.LoadProject(dir)
	if err != nil {
		return nil, err
	}

	log, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	p := &project{dir: dir, cfg: cfg, log: log}
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		path := cfg.Storage.SQLitePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		p.store = store
		// A database outside the project is not tracked.
		if rel, ok := within(dir, path); ok {
			p.ledgerPaths = []string{rel}
		}
	default:
		p.store = ledger.NewFileStore(dir)
		p.ledgerPaths = ledger.Paths()
	}
	p.svc = balance.NewService(p.store, log)

	log.WithFields(logrus.Fields{
		"dir":     dir,
		"backend": cfg.Storage.Backend,
	}).Debug("Project.Open")
	return p, nil
}

// within returns path relative to dir when path lies inside dir.
func within(dir, path string) (string, bool) {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func (p *project) Close() error {
	return p.store.Close()
}

// commit records ledger changes, plus any extra paths, when auto-commit is
// on and the project is a git repository. It returns the short hash, or ""
// when nothing was committed.
func (p *project) commit(message string, extra ...string) (string, error) {
	if !p.cfg.Git.AutoCommit || !gitops.IsRepo(p.dir) || len(p.ledgerPaths) == 0 {
		return "", nil
	}
	repo := gitops.Repo{Dir: p.dir, AuthorName: p.cfg.Git.AuthorName, AuthorEmail: p.cfg.Git.AuthorEmail}
	hash, err := repo.Commit(message, append(append([]string(nil), p.ledgerPaths...), extra...)...)
	if err != nil {
		return "", fmt.Errorf("committing ledger: %w", err)
	}
	if hash != "" {
		p.log.WithField("commit", hash).Info("Project.Commit")
	}
	return hash, nil
}

// parseDay parses a --date style flag. Empty means today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return dates.ToLocalMidnight(time.Now()), nil
	}
	return dates.ParseDate(s)
}
