// Package accrual computes an account's principal, accrued interest and
// balance by simulating every calendar day from the first transaction to a
// target date. Interest accrues daily at rate/365 on a positive balance and
// compounds when the next day starts a new month.
package accrual

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/model"
	"github.com/accrual-dev/accrual/internal/rates"
)

// ErrUnknownType is returned for a transaction whose type is not deposit,
// withdrawal or interest.
var ErrUnknownType = errors.New("unknown transaction type")

// daysPerYearPercent converts an annual percent rate into a daily fraction.
// The year is fixed at 365 days, leap years included.
var daysPerYearPercent = decimal.NewFromInt(365 * 100)

// Day is the state of the simulation at the end of one calendar day.
type Day struct {
	Date          civil.Date
	Rate          decimal.Decimal // annual percent in force
	DailyInterest decimal.Decimal // interest earned overnight, zero on the target day
	Compounded    decimal.Decimal // accrued interest folded into principal at end of day
	Balance       decimal.Decimal // excludes AccruedInterest
	Principal     decimal.Decimal
	// AccruedInterest is interest not yet compounded or recorded.
	AccruedInterest decimal.Decimal
	Transactions    []model.Transaction
}

type datedTx struct {
	date civil.Date
	tx   model.Transaction
}

// Calculate returns the account position on target. Every transaction must
// carry a known type, including those dated after target.
func Calculate(txs []model.Transaction, rateList []model.InterestRate, target time.Time) (model.Result, error) {
	return Walk(txs, rateList, target, nil)
}

// Walk runs the simulation through target, calling fn (if non-nil) once per
// simulated day. An error from fn stops the walk and is returned as is.
func Walk(txs []model.Transaction, rateList []model.InterestRate, target time.Time, fn func(Day) error) (model.Result, error) {
	if len(txs) == 0 {
		return model.Result{Balance: decimal.Zero, Principal: decimal.Zero, AccruedInterest: decimal.Zero}, nil
	}

	ledger, err := sortTransactions(txs)
	if err != nil {
		return model.Result{}, err
	}
	schedule, err := rates.NewSchedule(rateList)
	if err != nil {
		return model.Result{}, err
	}

	end := dates.Of(target)
	balance := decimal.Zero
	principal := decimal.Zero
	accrued := decimal.Zero
	next := 0

	for cur := ledger[0].date; !cur.After(end); cur = cur.AddDays(1) {
		day := Day{Date: cur}

		// Apply the day's transactions in ledger order.
		recorded := false
		for next < len(ledger) && !ledger[next].date.After(cur) {
			tx := ledger[next].tx
			switch tx.Type {
			case model.TypeDeposit:
				balance = balance.Add(tx.Amount)
				principal = principal.Add(tx.Amount)
			case model.TypeWithdrawal:
				balance = balance.Sub(tx.Amount)
				principal = principal.Sub(tx.Amount)
			case model.TypeInterest:
				balance = balance.Add(tx.Amount)
				principal = principal.Add(tx.Amount)
				recorded = true
			}
			day.Transactions = append(day.Transactions, tx)
			next++
		}

		// A recorded posting supersedes whatever accrued for its period.
		if recorded {
			accrued = decimal.Zero
		}

		// Interest accrues overnight, so nothing is earned on the target day.
		day.Rate = schedule.RateOn(cur)
		day.DailyInterest = decimal.Zero
		if cur.Before(end) && day.Rate.IsPositive() && balance.IsPositive() {
			day.DailyInterest = balance.Mul(day.Rate).Div(daysPerYearPercent)
			accrued = accrued.Add(day.DailyInterest)
		}

		tomorrow := cur.AddDays(1)
		day.Compounded = decimal.Zero
		if dates.StartsMonth(cur, tomorrow) && !recorded && !interestOn(ledger[next:], tomorrow) {
			day.Compounded = accrued
			balance = balance.Add(accrued)
			principal = principal.Add(accrued)
			accrued = decimal.Zero
		}

		if fn != nil {
			day.Balance = balance
			day.Principal = principal
			day.AccruedInterest = accrued
			if err := fn(day); err != nil {
				return model.Result{}, err
			}
		}
	}

	return model.Result{
		Balance:         roundCents(balance.Add(accrued)),
		Principal:       roundCents(principal),
		AccruedInterest: roundCents(accrued),
	}, nil
}

var half = decimal.NewFromFloat(0.5)

// roundCents rounds d to 2 places with halves going up, so -0.005 becomes
// 0.00 rather than -0.01.
func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// interestOn reports whether pending, which is sorted by date, holds an
// interest posting dated d.
func interestOn(pending []datedTx, d civil.Date) bool {
	for _, p := range pending {
		if p.date.After(d) {
			return false
		}
		if p.date == d && p.tx.Type == model.TypeInterest {
			return true
		}
	}
	return false
}

func sortTransactions(txs []model.Transaction) ([]datedTx, error) {
	ledger := make([]datedTx, len(txs))
	for i, tx := range txs {
		d, err := dates.Parse(tx.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %q date: %w", tx.ID, err)
		}
		if !tx.Type.Valid() {
			return nil, fmt.Errorf("transaction %q: %w %q", tx.ID, ErrUnknownType, tx.Type)
		}
		ledger[i] = datedTx{date: d, tx: tx}
	}
	sort.SliceStable(ledger, func(i, j int) bool {
		return ledger[i].date.Before(ledger[j].date)
	})
	return ledger, nil
}
