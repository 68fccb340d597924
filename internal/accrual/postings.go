package accrual

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/model"
)

var errFound = errors.New("posting found")

// InterestDescription is the description recorded on the posting that
// compounds the interest earned in month's month.
func InterestDescription(month civil.Date) string {
	return fmt.Sprintf("Interest compounded for %s %d", month.Month, month.Year)
}

// Postings returns the interest transactions that record each monthly
// compounding dated on or before through. A posting is dated on the first
// day of the month after the one whose interest it carries, and its amount
// is rounded to cents.
//
// Postings already present in txs suppress compounding for their month, so
// running this against a ledger that includes its own earlier output yields
// nothing new. Each posting is found with the previous ones already in the
// ledger, which keeps later months consistent with the rounded amounts.
func Postings(txs []model.Transaction, rateList []model.InterestRate, through time.Time) ([]model.Transaction, error) {
	end := dates.Of(through)
	ledger := append([]model.Transaction(nil), txs...)

	var postings []model.Transaction
	for {
		var found *model.Transaction
		_, err := Walk(ledger, rateList, through, func(day Day) error {
			postDate := day.Date.AddDays(1)
			if postDate.After(end) {
				return nil
			}
			amount := roundCents(day.Compounded)
			if !amount.IsPositive() {
				return nil
			}
			found = &model.Transaction{
				Type:        model.TypeInterest,
				Amount:      amount,
				Date:        postDate.String(),
				Description: InterestDescription(day.Date),
			}
			return errFound
		})
		if err != nil && !errors.Is(err, errFound) {
			return nil, err
		}
		if found == nil {
			return postings, nil
		}
		postings = append(postings, *found)
		ledger = append(ledger, *found)
	}
}
