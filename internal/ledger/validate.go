package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/accrual-dev/accrual/internal/dates"
	"github.com/accrual-dev/accrual/internal/model"
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

var hundred = decimal.NewFromInt(100)

// ValidateTransaction checks the fields a ledger row must satisfy before it
// can be stored.
func ValidateTransaction(tx model.Transaction) []ValidationError {
	var errs []ValidationError

	if !tx.Type.Valid() {
		errs = append(errs, ValidationError{Field: "type", Description: fmt.Sprintf("unknown transaction type %q", tx.Type)})
	}

	if tx.Amount.IsNegative() {
		errs = append(errs, ValidationError{Field: "amount", Description: fmt.Sprintf("amount %s is negative", tx.Amount)})
	}
	if !tx.Amount.Mul(hundred).Equal(tx.Amount.Mul(hundred).Floor()) {
		errs = append(errs, ValidationError{Field: "amount", Description: fmt.Sprintf("amount %s has more than 2 decimal places", tx.Amount)})
	}

	if _, err := dates.Parse(tx.Date); err != nil {
		errs = append(errs, ValidationError{Field: "date", Description: err.Error()})
	}

	return errs
}

// ValidateRate checks a rate schedule entry.
func ValidateRate(r model.InterestRate) []ValidationError {
	var errs []ValidationError

	if r.Rate.IsNegative() {
		errs = append(errs, ValidationError{Field: "rate", Description: fmt.Sprintf("rate %s is negative", r.Rate)})
	}
	if _, err := dates.Parse(r.EffectiveDate); err != nil {
		errs = append(errs, ValidationError{Field: "effective_date", Description: err.Error()})
	}

	return errs
}

// CheckTransactions validates every tx and joins the failures into one error.
func CheckTransactions(txs []model.Transaction) error {
	var all []error
	for i, tx := range txs {
		for _, ve := range ValidateTransaction(tx) {
			all = append(all, fmt.Errorf("transaction %d: %w", i+1, ve))
		}
	}
	if len(all) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(all...))
	}
	return nil
}

// CheckRate validates r and joins the failures into one error.
func CheckRate(r model.InterestRate) error {
	verrs := ValidateRate(r)
	if len(verrs) == 0 {
		return nil
	}
	all := make([]error, len(verrs))
	for i, ve := range verrs {
		all[i] = ve
	}
	return fmt.Errorf("validation failed: %w", errors.Join(all...))
}
