// Package balance connects a ledger store to the accrual engine.
package balance

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/accrual-dev/accrual/internal/accrual"
	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/export"
	"github.com/accrual-dev/accrual/internal/ledger"
	"github.com/accrual-dev/accrual/internal/logging"
	"github.com/accrual-dev/accrual/internal/model"
)

// Service answers balance questions and records monthly compounding for
// one account.
type Service struct {
	store ledger.Store
	log   *logrus.Logger
}

// NewService creates a Service. A nil logger discards output.
func NewService(store ledger.Store, log *logrus.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{store: store, log: log}
}

// Balance returns the account position on target.
func (s *Service) Balance(ctx context.Context, target time.Time) (model.Result, error) {
	var result model.Result
	err := logging.Run(s.log, "Service.Balance", func(d *logging.OpData) error {
		d.Add("target", dates.FormatDateLocal(target))

		txs, rates, err := s.load(ctx)
		if err != nil {
			return err
		}
		d.Add("transactions", len(txs))
		d.Add("rates", len(rates))

		result, err = accrual.Calculate(txs, rates, target)
		if err != nil {
			return fmt.Errorf("calculating balance: %w", err)
		}
		d.Add("balance", result.Balance.StringFixed(2))
		return nil
	})
	return result, err
}

// Accrue finds the interest postings due through the given date and, unless
// dryRun is set, appends them to the ledger. It returns the postings with
// ids when they were stored.
func (s *Service) Accrue(ctx context.Context, through time.Time, dryRun bool) ([]model.Transaction, error) {
	var postings []model.Transaction
	err := logging.Run(s.log, "Service.Accrue", func(d *logging.OpData) error {
		d.Add("through", dates.FormatDateLocal(through))
		d.Add("dry_run", dryRun)

		txs, rates, err := s.load(ctx)
		if err != nil {
			return err
		}

		postings, err = accrual.Postings(txs, rates, through)
		if err != nil {
			return fmt.Errorf("finding postings: %w", err)
		}
		d.Add("postings", len(postings))

		if dryRun || len(postings) == 0 {
			return nil
		}
		postings, err = s.store.AddTransactions(ctx, postings...)
		if err != nil {
			return fmt.Errorf("recording postings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return postings, nil
}

// Export writes the daily accrual report through the given date to w.
func (s *Service) Export(ctx context.Context, w io.Writer, through time.Time) error {
	return logging.Run(s.log, "Service.Export", func(d *logging.OpData) error {
		d.Add("through", dates.FormatDateLocal(through))

		txs, rates, err := s.load(ctx)
		if err != nil {
			return err
		}
		d.Add("transactions", len(txs))

		return export.WriteDaily(w, txs, rates, through)
	})
}

// load reads transactions and rates concurrently.
func (s *Service) load(ctx context.Context) ([]model.Transaction, []model.InterestRate, error) {
	var (
		txs   []model.Transaction
		rates []model.InterestRate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.Transactions(gctx)
		if err != nil {
			return fmt.Errorf("loading transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rates, err = s.store.Rates(gctx)
		if err != nil {
			return fmt.Errorf("loading rates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, rates, nil
}
