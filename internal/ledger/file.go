package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/accrual-dev/accrual/internal/model"
)

const (
	ledgerDir        = "ledger"
	transactionsFile = "transactions.csv"
	ratesFile        = "rates.csv"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the ledger as CSV files under <root>/ledger.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at a project directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Paths returns the files the store writes, relative to the project root.
func Paths() []string {
	return []string{
		filepath.Join(ledgerDir, transactionsFile),
		filepath.Join(ledgerDir, ratesFile),
	}
}

// Init creates the ledger directory and empty CSV files if they are missing.
func (s *FileStore) Init() error {
	if err := os.MkdirAll(filepath.Join(s.root, ledgerDir), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}
	if err := s.createIfMissing(transactionsFile, TransactionHeader); err != nil {
		return err
	}
	return s.createIfMissing(ratesFile, RateHeader)
}

// Transactions implements Store.
func (s *FileStore) Transactions(ctx context.Context) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(transactionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	txs, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name(), err)
	}
	SortTransactions(txs)
	return txs, nil
}

// Rates implements Store.
func (s *FileStore) Rates(ctx context.Context) ([]model.InterestRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(ratesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening rates: %w", err)
	}
	defer f.Close()

	rates, err := ReadRates(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name(), err)
	}
	SortRates(rates)
	return rates, nil
}

// AddTransactions implements Store.
func (s *FileStore) AddTransactions(ctx context.Context, txs ...model.Transaction) ([]model.Transaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	if err := CheckTransactions(txs); err != nil {
		return nil, err
	}

	existing, err := s.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(existing))
	for i, tx := range existing {
		ids[i] = tx.ID
	}
	added := AssignIDs(ids, txs)

	if err := s.Init(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(s.path(transactionsFile), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	if err := AppendTransactions(f, added); err != nil {
		return nil, fmt.Errorf("appending transactions: %w", err)
	}
	return added, nil
}

// AddRate implements Store.
func (s *FileStore) AddRate(ctx context.Context, rate model.InterestRate) (model.InterestRate, error) {
	if err := CheckRate(rate); err != nil {
		return model.InterestRate{}, err
	}

	rates, err := s.Rates(ctx)
	if err != nil {
		return model.InterestRate{}, err
	}
	rate = NormalizeRate(rate)
	rate.ID = NextRateID(rates)
	rates = append(rates, rate)
	SortRates(rates)

	if err := s.Init(); err != nil {
		return model.InterestRate{}, err
	}
	if err := s.replace(ratesFile, func(f *os.File) error { return WriteRates(f, rates) }); err != nil {
		return model.InterestRate{}, err
	}
	return rate, nil
}

// DeleteTransaction implements Store.
func (s *FileStore) DeleteTransaction(ctx context.Context, id string) error {
	txs, err := s.Transactions(ctx)
	if err != nil {
		return err
	}

	kept := txs[:0]
	for _, tx := range txs {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	if len(kept) == len(txs) {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return s.replace(transactionsFile, func(f *os.File) error { return WriteTransactions(f, kept) })
}

// DeleteRate implements Store.
func (s *FileStore) DeleteRate(ctx context.Context, id int) error {
	rates, err := s.Rates(ctx)
	if err != nil {
		return err
	}

	kept := rates[:0]
	for _, r := range rates {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(rates) {
		return fmt.Errorf("rate %d: %w", id, ErrNotFound)
	}
	return s.replace(ratesFile, func(f *os.File) error { return WriteRates(f, kept) })
}

// Close implements Store. FileStore holds no open handles.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.root, ledgerDir, name)
}

func (s *FileStore) createIfMissing(name, header string) error {
	path := s.path(name)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	if err := os.WriteFile(path, []byte(header+"\n"), 0o644); err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	return nil
}

// replace rewrites name through a temp file so readers never see a partial file.
func (s *FileStore) replace(name string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Join(s.root, ledgerDir), name+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
