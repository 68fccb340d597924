package model

import (
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeInterest   TransactionType = "interest"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeInterest:
		return true
	}
	return false
}

// Transaction is one row of the account ledger.
type Transaction struct {
	ID          string // "YYYY-MM-NNN", assigned by the store
	Type        TransactionType
	Amount      decimal.Decimal // never negative; Type carries the sign
	Date        string          // YYYY-MM-DD
	Description string
}

// InterestRate is one entry of the rate schedule. It applies from
// EffectiveDate (inclusive) until a later entry supersedes it.
type InterestRate struct {
	ID            int
	Rate          decimal.Decimal // annual percent, 5 = 5%
	EffectiveDate string          // YYYY-MM-DD
}

// Result is the computed position of the account on a given day.
type Result struct {
	Balance         decimal.Decimal // principal plus uncompounded interest
	Principal       decimal.Decimal
	AccruedInterest decimal.Decimal
}
