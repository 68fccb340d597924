// Package sqlite is a ledger.Store backed by a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"

	"github.com/accrual-dev/accrual/internal/ledger"
	"github.com/accrual-dev/accrual/internal/model"
)

var _ ledger.Store = (*Store)(nil)

// Store keeps transactions and rates in SQLite. Amounts and rates are stored
// as decimal text so nothing passes through float64.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(path); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const selectTransactions = `SELECT id, date, type, amount, description FROM transactions ORDER BY date, id`

// Transactions implements ledger.Store.
func (s *Store) Transactions(ctx context.Context) ([]model.Transaction, error) {
	return queryTransactions(ctx, s.db)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryTransactions(ctx context.Context, q querier) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, selectTransactions)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var (
			tx     model.Transaction
			typ    string
			amount string
		)
		if err := rows.Scan(&tx.ID, &tx.Date, &typ, &amount, &tx.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = model.TransactionType(typ)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount %q: %w", tx.ID, amount, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	// Text ordering puts "2024-01-1000" before "2024-01-999".
	ledger.SortTransactions(txs)
	return txs, nil
}

// Rates implements ledger.Store.
func (s *Store) Rates(ctx context.Context) ([]model.InterestRate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, effective_date, rate FROM interest_rates ORDER BY effective_date, id`)
	if err != nil {
		return nil, fmt.Errorf("query rates: %w", err)
	}
	defer rows.Close()

	var rates []model.InterestRate
	for rows.Next() {
		var (
			r    model.InterestRate
			rate string
		)
		if err := rows.Scan(&r.ID, &r.EffectiveDate, &rate); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		if r.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("rate %d value %q: %w", r.ID, rate, err)
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rates: %w", err)
	}
	return rates, nil
}

// AddTransactions implements ledger.Store. Ids are assigned and rows
// inserted in one database transaction.
func (s *Store) AddTransactions(ctx context.Context, txs ...model.Transaction) ([]model.Transaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	if err := ledger.CheckTransactions(txs); err != nil {
		return nil, err
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	existing, err := queryTransactions(ctx, dbtx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(existing))
	for i, tx := range existing {
		ids[i] = tx.ID
	}
	added := ledger.AssignIDs(ids, txs)

	stmt, err := dbtx.PrepareContext(ctx, `INSERT INTO transactions (id, date, type, amount, description) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, tx := range added {
		if _, err := stmt.ExecContext(ctx, tx.ID, tx.Date, string(tx.Type), tx.Amount.StringFixed(2), tx.Description); err != nil {
			return nil, fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// AddRate implements ledger.Store.
func (s *Store) AddRate(ctx context.Context, rate model.InterestRate) (model.InterestRate, error) {
	if err := ledger.CheckRate(rate); err != nil {
		return model.InterestRate{}, err
	}
	rate = ledger.NormalizeRate(rate)

	res, err := s.db.ExecContext(ctx, `INSERT INTO interest_rates (effective_date, rate) VALUES (?, ?)`,
		rate.EffectiveDate, rate.Rate.String())
	if err != nil {
		return model.InterestRate{}, fmt.Errorf("insert rate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.InterestRate{}, fmt.Errorf("rate id: %w", err)
	}
	rate.ID = int(id)
	return rate, nil
}

// DeleteTransaction implements ledger.Store.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return checkDeleted(res, fmt.Sprintf("transaction %s", id))
}

// DeleteRate implements ledger.Store.
func (s *Store) DeleteRate(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM interest_rates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rate %d: %w", id, err)
	}
	return checkDeleted(res, fmt.Sprintf("rate %d", id))
}

func checkDeleted(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ledger.ErrNotFound)
	}
	return nil
}
