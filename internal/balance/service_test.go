package balance

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/export"
	"github.com/accrual-dev/accrual/internal/ledger"
	"github.com/accrual-dev/accrual/internal/model"
)

type mockStore struct {
	mock.Mock
}

var _ ledger.Store = (*mockStore)(nil)

func (m *mockStore) Transactions(ctx context.Context) ([]model.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *mockStore) Rates(ctx context.Context) ([]model.InterestRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InterestRate), args.Error(1)
}

func (m *mockStore) AddTransactions(ctx context.Context, txs ...model.Transaction) ([]model.Transaction, error) {
	args := m.Called(ctx, txs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *mockStore) AddRate(ctx context.Context, rate model.InterestRate) (model.InterestRate, error) {
	args := m.Called(ctx, rate)
	return args.Get(0).(model.InterestRate), args.Error(1)
}

func (m *mockStore) DeleteTransaction(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) DeleteRate(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dates.ParseDate(s)
	require.NoError(t, err)
	return d
}

var (
	opening = []model.Transaction{
		{ID: "2024-01-001", Type: model.TypeDeposit, Amount: dec("10000"), Date: "2024-01-01"},
	}
	fivePercent = []model.InterestRate{{ID: 1, Rate: dec("5"), EffectiveDate: "2024-01-01"}}
)

func newLedger(txs []model.Transaction, rates []model.InterestRate) *mockStore {
	m := &mockStore{}
	m.On("Transactions", mock.Anything).Return(txs, nil)
	m.On("Rates", mock.Anything).Return(rates, nil)
	return m
}

func TestBalance(t *testing.T) {
	store := newLedger(opening, fivePercent)
	svc := NewService(store, nil)

	got, err := svc.Balance(context.Background(), day(t, "2024-01-02"))
	require.NoError(t, err)
	assert.True(t, dec("10001.37").Equal(got.Balance), "balance %s", got.Balance)
	assert.True(t, dec("10000").Equal(got.Principal))
	assert.True(t, dec("1.37").Equal(got.AccruedInterest))
	store.AssertExpectations(t)
}

func TestBalance_EmptyLedger(t *testing.T) {
	svc := NewService(newLedger(nil, fivePercent), nil)

	got, err := svc.Balance(context.Background(), day(t, "2024-01-02"))
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
	assert.True(t, got.Principal.IsZero())
	assert.True(t, got.AccruedInterest.IsZero())
}

func TestBalance_LoadError(t *testing.T) {
	store := &mockStore{}
	store.On("Transactions", mock.Anything).Return(nil, errors.New("disk on fire"))
	store.On("Rates", mock.Anything).Return(fivePercent, nil).Maybe()

	_, err := NewService(store, nil).Balance(context.Background(), day(t, "2024-01-02"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading transactions")
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestAccrue_DryRun(t *testing.T) {
	store := newLedger(opening, fivePercent)
	svc := NewService(store, nil)

	postings, err := svc.Accrue(context.Background(), day(t, "2024-03-15"), true)
	require.NoError(t, err)
	require.Len(t, postings, 2)
	assert.Equal(t, "2024-02-01", postings[0].Date)
	assert.True(t, dec("42.47").Equal(postings[0].Amount))
	assert.Equal(t, "2024-03-01", postings[1].Date)
	store.AssertNotCalled(t, "AddTransactions", mock.Anything, mock.Anything)
}

func TestAccrue_Records(t *testing.T) {
	store := newLedger(opening, fivePercent)
	store.On("AddTransactions", mock.Anything, mock.MatchedBy(func(txs []model.Transaction) bool {
		return len(txs) == 1 && txs[0].Type == model.TypeInterest && txs[0].Date == "2024-02-01"
	})).Return([]model.Transaction{
		{ID: "2024-02-001", Type: model.TypeInterest, Amount: dec("42.47"), Date: "2024-02-01", Description: "Interest compounded for January 2024"},
	}, nil)

	postings, err := NewService(store, nil).Accrue(context.Background(), day(t, "2024-02-10"), false)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "2024-02-001", postings[0].ID)
	store.AssertExpectations(t)
}

func TestAccrue_NothingDue(t *testing.T) {
	store := newLedger(opening, fivePercent)

	postings, err := NewService(store, nil).Accrue(context.Background(), day(t, "2024-01-20"), false)
	require.NoError(t, err)
	assert.Empty(t, postings)
	store.AssertNotCalled(t, "AddTransactions", mock.Anything, mock.Anything)
}

func TestAccrue_StoreError(t *testing.T) {
	store := newLedger(opening, fivePercent)
	store.On("AddTransactions", mock.Anything, mock.Anything).Return(nil, errors.New("read-only"))

	_, err := NewService(store, nil).Accrue(context.Background(), day(t, "2024-02-10"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording postings")
}

func TestExport(t *testing.T) {
	svc := NewService(newLedger(opening, fivePercent), nil)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf, day(t, "2024-01-02")))
	assert.True(t, strings.HasPrefix(buf.String(), "Date,Balance,Rate (%)"))
	assert.Contains(t, buf.String(), "2024-01-02,10001.37")
}

func TestExport_Empty(t *testing.T) {
	svc := NewService(newLedger(nil, nil), nil)
	err := svc.Export(context.Background(), &bytes.Buffer{}, day(t, "2024-01-02"))
	assert.ErrorIs(t, err, export.ErrNoData)
}
