// Package validate checks an assembled ledger before export.
package validate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerhound/stmtledger/internal/domain"
)

// ValidationResult contains all validation errors and warnings for a ledger.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents an issue that should block export.
type ValidationError struct {
	Record  int
	Field   string
	Value   string
	Message string
}

// ValidationWarning represents a non-critical issue worth surfacing.
type ValidationWarning struct {
	Record  int
	Field   string
	Value   string
	Message string
}

// balanceTolerance absorbs statement rounding when re-checking the
// balance chain.
var balanceTolerance = decimal.New(1, -2)

// IsValid returns true when no errors were found. Warnings alone never
// block export.
func (r *ValidationResult) IsValid() bool { return len(r.Errors) == 0 }

// Summary returns a short human-readable count line.
func (r *ValidationResult) Summary() string {
	return fmt.Sprintf("%d errors, %d warnings", len(r.Errors), len(r.Warnings))
}

// ValidateLedger checks every record's internal consistency plus the
// cross-record ordering and balance-chain properties.
func ValidateLedger(l *domain.Ledger) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	records := l.Records()
	var prevDate time.Time
	var prevBalance decimal.NullDecimal

	for i, rec := range records {
		if rec.Date.IsZero() {
			result.Errors = append(result.Errors, ValidationError{
				Record:  i,
				Field:   "Date",
				Message: "record date is unset",
			})
		}
		if rec.Merchant == "" {
			result.Errors = append(result.Errors, ValidationError{
				Record:  i,
				Field:   "Merchant",
				Message: "record merchant is empty",
			})
		}
		if rec.Withdrawal.IsNegative() || rec.Deposit.IsNegative() {
			result.Errors = append(result.Errors, ValidationError{
				Record:  i,
				Field:   "Amount",
				Value:   rec.Amount().String(),
				Message: "amounts must be non-negative",
			})
		}
		if rec.HasWithdrawal() && rec.HasDeposit() && !rec.Positional && !rec.Unreconciled {
			result.Errors = append(result.Errors, ValidationError{
				Record:  i,
				Field:   "Amount",
				Message: "record carries both a withdrawal and a deposit",
			})
		}

		if rec.Unreconciled {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Record:  i,
				Field:   "Unreconciled",
				Message: "record could not be reconciled against the balance chain",
			})
		}
		if !rec.Anchor && rec.Category == "" {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Record:  i,
				Field:   "Category",
				Value:   rec.Merchant,
				Message: "record is uncategorized",
			})
		}

		if !prevDate.IsZero() && rec.Date.Before(prevDate) {
			result.Errors = append(result.Errors, ValidationError{
				Record:  i,
				Field:   "Date",
				Value:   rec.Date.Format("2006-01-02"),
				Message: "records are not in date order",
			})
		}
		prevDate = rec.Date

		if prevBalance.Valid && rec.Balance.Valid && !rec.Unreconciled {
			expected := prevBalance.Decimal.Add(rec.Deposit).Sub(rec.Withdrawal)
			if expected.Sub(rec.Balance.Decimal).Abs().GreaterThan(balanceTolerance) {
				result.Warnings = append(result.Warnings, ValidationWarning{
					Record:  i,
					Field:   "Balance",
					Value:   rec.Balance.Decimal.StringFixed(2),
					Message: fmt.Sprintf("balance does not follow from previous balance (expected %s)", expected.StringFixed(2)),
				})
			}
		}
		if rec.Balance.Valid {
			prevBalance = rec.Balance
		}
	}

	return result
}
