package importer

import (
	"io"

	"github.com/accrual-dev/accrual/internal/ledger"
	"github.com/accrual-dev/accrual/internal/model"
)

// LedgerParser reads files in the transactions.csv layout, for moving
// entries between projects. Ids in the file are dropped so the target
// ledger assigns its own.
type LedgerParser struct{}

// Format returns the parser name.
func (p *LedgerParser) Format() string { return "ledger" }

// Parse implements Parser.
func (p *LedgerParser) Parse(r io.Reader) ([]model.Transaction, error) {
	txs, err := ledger.ReadTransactions(r)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].ID = ""
	}
	return txs, nil
}
