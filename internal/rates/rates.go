// Package rates resolves the annual interest rate in force on a given day.
package rates

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/model"
)

type entry struct {
	from civil.Date
	rate decimal.Decimal
}

// Schedule is a rate schedule sorted by effective date.
type Schedule struct {
	entries []entry
}

// NewSchedule parses and sorts rates. The input slice is not modified.
// Entries sharing an effective date keep their input order, so the later one
// wins.
func NewSchedule(rates []model.InterestRate) (*Schedule, error) {
	entries := make([]entry, 0, len(rates))
	for _, r := range rates {
		from, err := dates.Parse(r.EffectiveDate)
		if err != nil {
			return nil, fmt.Errorf("rate %d effective date: %w", r.ID, err)
		}
		entries = append(entries, entry{from: from, rate: r.Rate})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].from.Before(entries[j].from)
	})
	return &Schedule{entries: entries}, nil
}

// RateOn returns the latest rate whose effective date is on or before d,
// or zero when none qualifies.
func (s *Schedule) RateOn(d civil.Date) decimal.Decimal {
	current := decimal.Zero
	for _, e := range s.entries {
		if e.from.After(d) {
			break
		}
		current = e.rate
	}
	return current
}

// Len returns the number of entries.
func (s *Schedule) Len() int {
	return len(s.entries)
}

// CurrentRate resolves the rate in force on date from an unsorted list.
func CurrentRate(rates []model.InterestRate, date string) (decimal.Decimal, error) {
	d, err := dates.Parse(date)
	if err != nil {
		return decimal.Zero, err
	}
	s, err := NewSchedule(rates)
	if err != nil {
		return decimal.Zero, err
	}
	return s.RateOn(d), nil
}
