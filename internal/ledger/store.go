// Package ledger stores an account's transactions and rate schedule.
package ledger

import (
	"cmp"
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/model"
	"github.com/accrual-dev/accrual/internal/txid"
)

// ErrNotFound is returned when deleting an id the store does not hold.
var ErrNotFound = errors.New("not found")

// Store is the persistence boundary for one account's ledger.
type Store interface {
	// Transactions returns every transaction ordered by date, then id.
	Transactions(ctx context.Context) ([]model.Transaction, error)
	// Rates returns the rate schedule ordered by effective date, then id.
	Rates(ctx context.Context) ([]model.InterestRate, error)
	// AddTransactions validates and appends txs, assigning ids. Nothing is
	// written unless every transaction is valid.
	AddTransactions(ctx context.Context, txs ...model.Transaction) ([]model.Transaction, error)
	AddRate(ctx context.Context, rate model.InterestRate) (model.InterestRate, error)
	DeleteTransaction(ctx context.Context, id string) error
	DeleteRate(ctx context.Context, id int) error
	Close() error
}

// SortTransactions orders txs by date, then id. Dates and ids compare by
// value, so "2024-1-5" sorts before "2024-01-10" and "2024-01-1000" after
// "2024-01-999".
func SortTransactions(txs []model.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if c := compareDates(txs[i].Date, txs[j].Date); c != 0 {
			return c < 0
		}
		return compareIDs(txs[i].ID, txs[j].ID) < 0
	})
}

// SortRates orders rates by effective date, then id.
func SortRates(rates []model.InterestRate) {
	sort.SliceStable(rates, func(i, j int) bool {
		if c := compareDates(rates[i].EffectiveDate, rates[j].EffectiveDate); c != 0 {
			return c < 0
		}
		return rates[i].ID < rates[j].ID
	})
}

// compareDates falls back to string order when either date is malformed.
func compareDates(a, b string) int {
	da, errA := dates.Parse(a)
	db, errB := dates.Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	switch {
	case da.Before(db):
		return -1
	case da.After(db):
		return 1
	}
	return 0
}

func compareIDs(a, b string) int {
	ay, am, as, errA := txid.Parse(a)
	by, bm, bs, errB := txid.Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return cmp.Or(cmp.Compare(ay, by), cmp.Compare(am, bm), cmp.Compare(as, bs))
}

// AssignIDs gives each of added the next free id in its month, after the
// ids in existing, and rewrites its date in zero-padded form. Dates must
// already be validated.
func AssignIDs(existing []string, added []model.Transaction) []model.Transaction {
	used := append([]string(nil), existing...)
	out := make([]model.Transaction, len(added))
	for i, tx := range added {
		d := dates.MustParse(tx.Date)
		tx.Date = d.String()
		tx.ID = txid.Next(used, d.Year, int(d.Month))
		used = append(used, tx.ID)
		out[i] = tx
	}
	return out
}

// NormalizeRate rewrites r's effective date in zero-padded form. The date
// must already be validated.
func NormalizeRate(r model.InterestRate) model.InterestRate {
	r.EffectiveDate = dates.MustParse(r.EffectiveDate).String()
	return r
}

// NextRateID returns one past the highest id in rates.
func NextRateID(rates []model.InterestRate) int {
	maxID := 0
	for _, r := range rates {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}
