package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/accrual-dev/accrual/internal/model"
)

// ChaseParser parses Chase bank account CSV exports. Credits become
// deposits and debits become withdrawals.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns one transaction per non-zero row.
func (p *ChaseParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txs []model.Transaction
	for i, rec := range records[1:] {
		tx, ok, err := parseChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func parseChaseRow(rec []string) (model.Transaction, bool, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.Transaction{}, false, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	typ, abs, ok := signed(amount)
	if !ok {
		return model.Transaction{}, false, nil
	}

	return model.Transaction{
		Type:        typ,
		Amount:      abs,
		Date:        civil.DateOf(date).String(),
		Description: chaseDescription(rec[chaseColDesc], rec[chaseColType]),
	}, true, nil
}

// chaseDescription keeps the bank's own wording, suffixed with its
// transaction type code when present, e.g. "PAYROLL ACME (ACH_CREDIT)".
func chaseDescription(desc, code string) string {
	desc = strings.TrimSpace(desc)
	code = strings.TrimSpace(code)
	if code == "" {
		return desc
	}
	return fmt.Sprintf("%s (%s)", desc, code)
}
