package accrual

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dates.ParseDate(s)
	require.NoError(t, err)
	return d
}

func deposit(date, amount string) model.Transaction {
	return model.Transaction{Type: model.TypeDeposit, Amount: dec(amount), Date: date}
}

func withdrawal(date, amount string) model.Transaction {
	return model.Transaction{Type: model.TypeWithdrawal, Amount: dec(amount), Date: date}
}

func interest(date, amount string) model.Transaction {
	return model.Transaction{Type: model.TypeInterest, Amount: dec(amount), Date: date, Description: "recorded"}
}

func rate(pct, effective string) model.InterestRate {
	return model.InterestRate{Rate: dec(pct), EffectiveDate: effective}
}

var fivePercent = []model.InterestRate{rate("5", "2024-01-01")}

func assertResult(t *testing.T, got model.Result, balance, principal, accrued string) {
	t.Helper()
	assert.True(t, dec(balance).Equal(got.Balance), "balance: got %s, want %s", got.Balance, balance)
	assert.True(t, dec(principal).Equal(got.Principal), "principal: got %s, want %s", got.Principal, principal)
	assert.True(t, dec(accrued).Equal(got.AccruedInterest), "accrued: got %s, want %s", got.AccruedInterest, accrued)
}

func TestCalculate_Empty(t *testing.T) {
	for _, rates := range [][]model.InterestRate{nil, fivePercent, {rate("12", "2020-01-01")}} {
		for _, target := range []string{"1970-01-01", "2024-01-15", "2099-12-31"} {
			got, err := Calculate(nil, rates, day(t, target))
			require.NoError(t, err)
			assertResult(t, got, "0", "0", "0")
		}
	}
}

func TestCalculate_SingleDepositNoRates(t *testing.T) {
	txs := []model.Transaction{deposit("2024-01-01", "10000")}
	for _, target := range []string{"2024-01-01", "2024-01-31", "2024-02-01", "2026-07-19"} {
		got, err := Calculate(txs, nil, day(t, target))
		require.NoError(t, err)
		assertResult(t, got, "10000", "10000", "0")
	}
}

func TestCalculate_SameDayDeposit(t *testing.T) {
	got, err := Calculate([]model.Transaction{deposit("2024-01-01", "10000")}, fivePercent, day(t, "2024-01-01"))
	require.NoError(t, err)
	assertResult(t, got, "10000", "10000", "0")
}

func TestCalculate_DailyAccrual(t *testing.T) {
	txs := []model.Transaction{deposit("2024-01-01", "10000")}
	tests := []struct {
		target                      string
		balance, principal, accrued string
	}{
		{"2024-01-02", "10001.37", "10000", "1.37"},
		{"2024-01-11", "10013.70", "10000", "13.70"},
	}
	for _, tt := range tests {
		got, err := Calculate(txs, fivePercent, day(t, tt.target))
		require.NoError(t, err)
		assertResult(t, got, tt.balance, tt.principal, tt.accrued)
	}
}

func TestCalculate_MonthlyCompounding(t *testing.T) {
	txs := []model.Transaction{deposit("2024-01-01", "10000")}

	got, err := Calculate(txs, fivePercent, day(t, "2024-02-01"))
	require.NoError(t, err)
	assertResult(t, got, "10042.47", "10042.47", "0")

	// Feb 1 accrues on the compounded principal.
	got, err = Calculate(txs, fivePercent, day(t, "2024-02-02"))
	require.NoError(t, err)
	assertResult(t, got, "10043.84", "10042.47", "1.38")
}

func TestCalculate_CompoundsOnLastDayOfMonth(t *testing.T) {
	// On Jan 31 the next day starts a new month, so the 30 days earned so far
	// are folded in even though Jan 31 itself earns nothing yet.
	got, err := Calculate([]model.Transaction{deposit("2024-01-01", "10000")}, fivePercent, day(t, "2024-01-31"))
	require.NoError(t, err)
	assertResult(t, got, "10041.10", "10041.10", "0")
}

func TestCalculate_RecordedInterestMatchesCompounding(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-01", "10000"),
		interest("2024-02-01", "42.47"),
	}

	got, err := Calculate(txs, fivePercent, day(t, "2024-02-01"))
	require.NoError(t, err)
	assertResult(t, got, "10042.47", "10042.47", "0")

	got, err = Calculate(txs, fivePercent, day(t, "2024-02-02"))
	require.NoError(t, err)
	assertResult(t, got, "10043.85", "10042.47", "1.38")
}

func TestCalculate_RecordedInterestNextDayDefersCompounding(t *testing.T) {
	// With a posting waiting on Feb 1, Jan 31 must not compound on its own.
	txs := []model.Transaction{
		deposit("2024-01-01", "10000"),
		interest("2024-02-01", "42.47"),
	}
	got, err := Calculate(txs, fivePercent, day(t, "2024-01-31"))
	require.NoError(t, err)
	assertResult(t, got, "10041.10", "10000", "41.10")
}

func TestCalculate_RecordedInterestBehindOtherNextDayTransaction(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-01", "10000"),
		deposit("2024-02-01", "500"),
		interest("2024-02-01", "42.47"),
	}
	got, err := Calculate(txs, fivePercent, day(t, "2024-02-01"))
	require.NoError(t, err)
	assertResult(t, got, "10542.47", "10542.47", "0")
}

func TestCalculate_MultipleRecordedMonths(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-01", "10000"),
		interest("2024-02-01", "42.47"),
	}
	got, err := Calculate(txs, fivePercent, day(t, "2024-03-01"))
	require.NoError(t, err)
	assertResult(t, got, "10082.36", "10082.36", "0")
}

func TestCalculate_Withdrawal(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-01", "10000"),
		withdrawal("2024-01-15", "2000"),
	}

	got, err := Calculate(txs, fivePercent, day(t, "2024-01-15"))
	require.NoError(t, err)
	assertResult(t, got, "8019.18", "8000", "19.18")

	// (14 * 10000 + 17 * 8000) * 5% / 365
	got, err = Calculate(txs, fivePercent, day(t, "2024-02-01"))
	require.NoError(t, err)
	assertResult(t, got, "8037.81", "8037.81", "0")
}

func TestCalculate_NegativeBalanceFlowsThrough(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-01", "100"),
		withdrawal("2024-01-02", "300"),
	}
	got, err := Calculate(txs, fivePercent, day(t, "2024-03-01"))
	require.NoError(t, err)
	// Only the one night at +100 earned anything.
	assertResult(t, got, "-199.99", "-199.99", "0")
}

func TestCalculate_ZeroRates(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-01", "10000"),
		withdrawal("2024-02-10", "250.50"),
	}
	got, err := Calculate(txs, []model.InterestRate{rate("0", "2024-01-01"), rate("0", "2024-02-01")}, day(t, "2024-03-05"))
	require.NoError(t, err)
	assertResult(t, got, "9749.50", "9749.50", "0")
}

func TestCalculate_LeapYearFebruary(t *testing.T) {
	got, err := Calculate([]model.Transaction{deposit("2024-02-01", "10000")}, fivePercent, day(t, "2024-03-01"))
	require.NoError(t, err)
	assertResult(t, got, "10039.73", "10039.73", "0")
}

func TestCalculate_MidMonthRateChange(t *testing.T) {
	txs := []model.Transaction{deposit("2024-01-01", "10000")}
	rates := []model.InterestRate{rate("5", "2024-01-01"), rate("8", "2024-01-15")}

	got, err := Calculate(txs, rates, day(t, "2024-02-01"))
	require.NoError(t, err)

	want := dec("10000").
		Add(dec("14").Mul(dec("10000")).Mul(dec("5")).Div(dec("36500"))).
		Add(dec("17").Mul(dec("10000")).Mul(dec("8")).Div(dec("36500"))).
		Round(2)
	assertResult(t, got, want.String(), want.String(), "0")
	assertResult(t, got, "10056.44", "10056.44", "0")
}

func TestCalculate_RateFromFarPast(t *testing.T) {
	got, err := Calculate([]model.Transaction{deposit("2024-01-01", "10000")}, []model.InterestRate{rate("5", "2015-03-01")}, day(t, "2024-01-02"))
	require.NoError(t, err)
	assertResult(t, got, "10001.37", "10000", "1.37")
}

func TestCalculate_TargetBeforeFirstTransaction(t *testing.T) {
	got, err := Calculate([]model.Transaction{deposit("2024-01-01", "10000")}, fivePercent, day(t, "2023-12-01"))
	require.NoError(t, err)
	assertResult(t, got, "0", "0", "0")
}

func TestCalculate_IgnoresTransactionsAfterTarget(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-01", "10000"),
		deposit("2024-01-20", "5000"),
	}
	got, err := Calculate(txs, fivePercent, day(t, "2024-01-11"))
	require.NoError(t, err)
	assertResult(t, got, "10013.70", "10000", "13.70")
}

func TestCalculate_TargetTimeOfDayIgnored(t *testing.T) {
	txs := []model.Transaction{deposit("2024-01-01", "10000")}
	late := time.Date(2024, time.January, 2, 23, 30, 0, 0, time.Local)

	got, err := Calculate(txs, fivePercent, late)
	require.NoError(t, err)
	assertResult(t, got, "10001.37", "10000", "1.37")
}

func TestCalculate_TwelvePercentQuarter(t *testing.T) {
	txs := []model.Transaction{deposit("2024-10-01", "10000")}
	rates := []model.InterestRate{rate("12", "2024-10-01")}

	got, err := Calculate(txs, rates, day(t, "2024-11-01"))
	require.NoError(t, err)
	assertResult(t, got, "10101.92", "10101.92", "0")

	got, err = Calculate(txs, rates, day(t, "2025-01-01"))
	require.NoError(t, err)
	assertResult(t, got, "10305.53", "10305.53", "0")
}

func TestCalculate_UnsortedInputsMatchSorted(t *testing.T) {
	txs := []model.Transaction{
		{ID: "2024-01-001", Type: model.TypeDeposit, Amount: dec("10000"), Date: "2024-01-01"},
		{ID: "2024-01-002", Type: model.TypeWithdrawal, Amount: dec("1500"), Date: "2024-01-20"},
		{ID: "2024-02-001", Type: model.TypeDeposit, Amount: dec("250.25"), Date: "2024-02-14"},
		{ID: "2024-03-001", Type: model.TypeInterest, Amount: dec("12.34"), Date: "2024-03-01"},
		{ID: "2024-04-001", Type: model.TypeWithdrawal, Amount: dec("99.99"), Date: "2024-04-30"},
	}
	rates := []model.InterestRate{
		{ID: 1, Rate: dec("5"), EffectiveDate: "2024-01-01"},
		{ID: 2, Rate: dec("8"), EffectiveDate: "2024-01-15"},
		{ID: 3, Rate: dec("0"), EffectiveDate: "2024-03-10"},
		{ID: 4, Rate: dec("3.75"), EffectiveDate: "2024-04-02"},
	}
	target := day(t, "2024-06-15")

	want, err := Calculate(txs, rates, target)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		shuffledTxs := append([]model.Transaction(nil), txs...)
		shuffledRates := append([]model.InterestRate(nil), rates...)
		rng.Shuffle(len(shuffledTxs), func(a, b int) { shuffledTxs[a], shuffledTxs[b] = shuffledTxs[b], shuffledTxs[a] })
		rng.Shuffle(len(shuffledRates), func(a, b int) { shuffledRates[a], shuffledRates[b] = shuffledRates[b], shuffledRates[a] })

		got, err := Calculate(shuffledTxs, shuffledRates, target)
		require.NoError(t, err)
		assertResult(t, got, want.Balance.String(), want.Principal.String(), want.AccruedInterest.String())
	}
}

func TestCalculate_DoesNotMutateInputs(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-10", "1"),
		deposit("2024-01-01", "2"),
	}
	rates := []model.InterestRate{rate("8", "2024-01-15"), rate("5", "2024-01-01")}

	_, err := Calculate(txs, rates, day(t, "2024-02-01"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", txs[0].Date)
	assert.Equal(t, "2024-01-15", rates[0].EffectiveDate)
}

func TestCalculate_InvalidDates(t *testing.T) {
	_, err := Calculate([]model.Transaction{{ID: "x", Type: model.TypeDeposit, Amount: dec("1"), Date: "01/02/2024"}}, nil, day(t, "2024-02-01"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dates.ErrInvalidInput)

	_, err = Calculate([]model.Transaction{deposit("2024-01-01", "1")}, []model.InterestRate{rate("5", "")}, day(t, "2024-02-01"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dates.ErrInvalidInput)
}

func TestCalculate_UnknownType(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-01", "100"),
		{ID: "2024-01-002", Type: "fee", Amount: dec("5"), Date: "2024-01-02"},
	}
	_, err := Calculate(txs, fivePercent, day(t, "2024-02-01"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), `"fee"`)
}

func TestCalculate_NegativeHalfCentRoundsUp(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-01", "0.005"),
		withdrawal("2024-01-01", "0.01"),
	}
	got, err := Calculate(txs, nil, day(t, "2024-01-01"))
	require.NoError(t, err)
	assertResult(t, got, "0", "0", "0")
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0.125", "0.13"},
		{"-0.125", "-0.12"},
		{"-0.005", "0"},
		{"-0.006", "-0.01"},
		{"1.3699", "1.37"},
		{"-1.3699", "-1.37"},
		{"42.465", "42.47"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := roundCents(dec(tt.in))
			assert.True(t, dec(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestWalk_ReportsEveryDay(t *testing.T) {
	txs := []model.Transaction{
		deposit("2024-01-30", "10000"),
		withdrawal("2024-02-02", "1000"),
	}

	var days []Day
	got, err := Walk(txs, fivePercent, day(t, "2024-02-03"), func(d Day) error {
		days = append(days, d)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, days, 5)

	assert.Equal(t, "2024-01-30", days[0].Date.String())
	assert.Len(t, days[0].Transactions, 1)
	assert.True(t, dec("5").Equal(days[0].Rate))
	assert.True(t, days[0].DailyInterest.IsPositive())
	assert.True(t, days[0].Compounded.IsZero())

	// Jan 31 folds two nights of interest into principal.
	jan31 := days[1]
	assert.True(t, jan31.Compounded.IsPositive())
	assert.True(t, jan31.AccruedInterest.IsZero())
	assert.True(t, jan31.Principal.Equal(jan31.Balance))
	assert.True(t, jan31.Compounded.Equal(days[0].DailyInterest.Add(jan31.DailyInterest)))

	assert.Len(t, days[3].Transactions, 1)
	assert.Equal(t, model.TypeWithdrawal, days[3].Transactions[0].Type)

	last := days[4]
	assert.True(t, last.DailyInterest.IsZero(), "no interest is earned on the target day")
	assert.True(t, got.Principal.Equal(last.Principal.Round(2)))
	assert.True(t, got.AccruedInterest.Equal(last.AccruedInterest.Round(2)))
}

func TestWalk_CallbackErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	_, err := Walk([]model.Transaction{deposit("2024-01-01", "1")}, nil, day(t, "2024-12-31"), func(Day) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls)
}
