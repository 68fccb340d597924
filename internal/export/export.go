// Package export renders the day-by-day accrual trace as CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/accrual-dev/accrual/internal/accrual"
	"github.com/accrual-dev/accrual/internal/model"
)

// ErrNoData is returned when there are no transactions to report on.
var ErrNoData = errors.New("no data to export")

// DailyHeader is the header row of the daily section.
var DailyHeader = []string{
	"Date", "Balance", "Rate (%)", "Daily Interest", "Principal",
	"Accrued Interest", "Compounded", "Transaction Types", "Transaction Amounts", "Descriptions",
}

var (
	transactionsHeader = []string{"ID", "Date", "Type", "Amount", "Description"}
	ratesHeader        = []string{"ID", "Effective Date", "Rate (%)"}
)

// WriteDaily writes one row per simulated day through the given date,
// followed by a Transactions section and an Interest Rates section. The
// Balance column includes interest accrued but not yet compounded, so the
// last row agrees with accrual.Calculate.
func WriteDaily(w io.Writer, txs []model.Transaction, rates []model.InterestRate, through time.Time) error {
	if len(txs) == 0 {
		return ErrNoData
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(DailyHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	_, err := accrual.Walk(txs, rates, through, func(day accrual.Day) error {
		return cw.Write(dailyRow(day))
	})
	if err != nil {
		return fmt.Errorf("writing daily rows: %w", err)
	}

	if err := section(w, cw, "Transactions", transactionsHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := cw.Write([]string{tx.ID, tx.Date, string(tx.Type), tx.Amount.StringFixed(2), tx.Description}); err != nil {
			return fmt.Errorf("writing transaction %s: %w", tx.ID, err)
		}
	}

	if err := section(w, cw, "Interest Rates", ratesHeader); err != nil {
		return err
	}
	for _, r := range rates {
		if err := cw.Write([]string{strconv.Itoa(r.ID), r.EffectiveDate, r.Rate.String()}); err != nil {
			return fmt.Errorf("writing rate %d: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func dailyRow(day accrual.Day) []string {
	var types, amounts, descs []string
	for _, tx := range day.Transactions {
		types = append(types, string(tx.Type))
		amounts = append(amounts, tx.Amount.StringFixed(2))
		if tx.Description != "" {
			descs = append(descs, tx.Description)
		}
	}

	return []string{
		day.Date.String(),
		day.Balance.Add(day.AccruedInterest).StringFixed(2),
		day.Rate.StringFixed(2),
		day.DailyInterest.StringFixed(4),
		day.Principal.StringFixed(2),
		day.AccruedInterest.StringFixed(2),
		day.Compounded.StringFixed(2),
		strings.Join(types, ";"),
		strings.Join(amounts, ";"),
		strings.Join(descs, "; "),
	}
}

// section ends the previous block with a blank line and starts a titled one.
func section(w io.Writer, cw *csv.Writer, title string, header []string) error {
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("writing %s section: %w", title, err)
	}
	if err := cw.Write([]string{title}); err != nil {
		return fmt.Errorf("writing %s section: %w", title, err)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing %s header: %w", title, err)
	}
	return nil
}
