// Package export writes an assembled ledger as CSV with a stable column
// layout so downstream spreadsheets and diffs stay comparable across runs.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerhound/stmtledger/internal/domain"
)

// Header is the CSV header for exported ledgers.
const Header = "date,description,category,withdrawal,deposit,balance"

const (
	numFields     = 6
	dateFormat    = "2006-01-02"
	colDate       = 0
	colDesc       = 1
	colCategory   = 2
	colWithdrawal = 3
	colDeposit    = 4
	colBalance    = 5
)

// MarshalRecord converts a record to a CSV row. Absent amounts become empty
// cells rather than zeros.
func MarshalRecord(rec domain.TransactionRecord) []string {
	row := make([]string, numFields)
	row[colDate] = rec.Date.Format(dateFormat)
	row[colDesc] = rec.Merchant
	row[colCategory] = string(rec.Category)

	if rec.HasWithdrawal() {
		row[colWithdrawal] = rec.Withdrawal.StringFixed(2)
	}
	if rec.HasDeposit() {
		row[colDeposit] = rec.Deposit.StringFixed(2)
	}
	if rec.Balance.Valid {
		row[colBalance] = rec.Balance.Decimal.StringFixed(2)
	}

	return row
}

// UnmarshalRecord converts a CSV row back to a record.
func UnmarshalRecord(row []string) (domain.TransactionRecord, error) {
	if len(row) != numFields {
		return domain.TransactionRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}

	date, err := time.Parse(dateFormat, row[colDate])
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("parsing date %q: %w", row[colDate], err)
	}

	rec := domain.TransactionRecord{
		Date:     date,
		Merchant: row[colDesc],
		Category: domain.Category(row[colCategory]),
	}

	if row[colWithdrawal] != "" {
		if rec.Withdrawal, err = decimal.NewFromString(row[colWithdrawal]); err != nil {
			return domain.TransactionRecord{}, fmt.Errorf("parsing withdrawal %q: %w", row[colWithdrawal], err)
		}
	}
	if row[colDeposit] != "" {
		if rec.Deposit, err = decimal.NewFromString(row[colDeposit]); err != nil {
			return domain.TransactionRecord{}, fmt.Errorf("parsing deposit %q: %w", row[colDeposit], err)
		}
	}
	if row[colBalance] != "" {
		bal, err := decimal.NewFromString(row[colBalance])
		if err != nil {
			return domain.TransactionRecord{}, fmt.Errorf("parsing balance %q: %w", row[colBalance], err)
		}
		rec.Balance = decimal.NewNullDecimal(bal)
	}

	return rec, nil
}

// Write writes the ledger to w, header first. Anchor rows are included so
// the export carries the statement's opening and closing balances.
func Write(w io.Writer, l *domain.Ledger) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range l.Records() {
		if err := cw.Write(MarshalRecord(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// WriteFile writes the ledger to path, or to stdout when path is "-".
func WriteFile(path string, l *domain.Ledger) error {
	if path == "-" {
		return Write(os.Stdout, l)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := Write(f, l); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}
