package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/accrual-dev/accrual/internal/model"
)

// TransactionHeader is the CSV header for transactions.csv.
const TransactionHeader = "id,date,type,amount,description"

// RateHeader is the CSV header for rates.csv.
const RateHeader = "id,effective_date,rate"

const (
	numTxFields = 5
	colTxID     = 0
	colTxDate   = 1
	colTxType   = 2
	colTxAmount = 3
	colTxDesc   = 4

	numRateFields = 3
	colRateID     = 0
	colRateDate   = 1
	colRateValue  = 2
)

// ReadTransactions reads all transactions from a transactions.csv reader.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	records, err := readRecords(r, numTxFields)
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	var txs []model.Transaction
	for i, rec := range records {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// WriteTransactions writes txs including the header.
func WriteTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(TransactionHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendTransactions writes txs without a header.
func AppendTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, numTxFields)
	row[colTxID] = tx.ID
	row[colTxDate] = tx.Date
	row[colTxType] = string(tx.Type)
	row[colTxAmount] = tx.Amount.StringFixed(2)
	row[colTxDesc] = tx.Description
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numTxFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numTxFields, len(record))
	}

	amount, err := decimal.NewFromString(record[colTxAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colTxAmount], err)
	}

	return model.Transaction{
		ID:          record[colTxID],
		Date:        record[colTxDate],
		Type:        model.TransactionType(record[colTxType]),
		Amount:      amount,
		Description: record[colTxDesc],
	}, nil
}

// ReadRates reads all entries from a rates.csv reader.
func ReadRates(r io.Reader) ([]model.InterestRate, error) {
	records, err := readRecords(r, numRateFields)
	if err != nil {
		return nil, fmt.Errorf("reading rates CSV: %w", err)
	}

	var rates []model.InterestRate
	for i, rec := range records {
		rate, err := UnmarshalRate(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

// WriteRates writes rates including the header.
func WriteRates(w io.Writer, rates []model.InterestRate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(RateHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range rates {
		if err := cw.Write(MarshalRate(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRate converts an InterestRate to a CSV row.
func MarshalRate(r model.InterestRate) []string {
	row := make([]string, numRateFields)
	row[colRateID] = strconv.Itoa(r.ID)
	row[colRateDate] = r.EffectiveDate
	row[colRateValue] = r.Rate.String()
	return row
}

// UnmarshalRate converts a CSV row to an InterestRate.
func UnmarshalRate(record []string) (model.InterestRate, error) {
	if len(record) != numRateFields {
		return model.InterestRate{}, fmt.Errorf("expected %d fields, got %d", numRateFields, len(record))
	}

	id, err := strconv.Atoi(record[colRateID])
	if err != nil {
		return model.InterestRate{}, fmt.Errorf("parsing id %q: %w", record[colRateID], err)
	}

	rate, err := decimal.NewFromString(record[colRateValue])
	if err != nil {
		return model.InterestRate{}, fmt.Errorf("parsing rate %q: %w", record[colRateValue], err)
	}

	return model.InterestRate{
		ID:            id,
		EffectiveDate: record[colRateDate],
		Rate:          rate,
	}, nil
}

// readRecords returns the data rows of a CSV, skipping the header.
func readRecords(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}
