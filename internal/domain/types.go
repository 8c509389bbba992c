// Package domain defines the core ledger entities shared by the extraction,
// reconciliation and categorization stages.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category is a spending category label. The default set mirrors the
// categories the merchant map ships with, but statements routinely need
// user-defined ones, so the set is open: RegisterCategory adds new labels
// and KnownCategory reports membership.
type Category string

const (
	CategoryGroceries Category = "Groceries"
	CategoryDining    Category = "Food"
	CategoryCarbs     Category = "Carbs"
	CategorySugar     Category = "Sugar"
	CategoryWellness  Category = "Beauty & Wellness"
	CategoryTransport Category = "Transport"
	CategoryIncome    Category = "Income"
	CategoryOther     Category = "Other"
)

var knownCategories = map[Category]struct{}{
	CategoryGroceries: {}, CategoryDining: {}, CategoryCarbs: {},
	CategorySugar: {}, CategoryWellness: {}, CategoryTransport: {},
	CategoryIncome: {}, CategoryOther: {},
}

// KnownCategory reports whether c is in the default or registered set.
func KnownCategory(c Category) bool {
	_, ok := knownCategories[c]
	return ok
}

// RegisterCategory adds a user-defined category to the known set.
func RegisterCategory(c Category) error {
	if c == "" {
		return fmt.Errorf("category cannot be empty")
	}
	knownCategories[c] = struct{}{}
	return nil
}

// TransactionRecord is a single reconciled statement line.
//
// Amount convention: Withdrawal and Deposit are non-negative and a zero
// value means "absent". After reconciliation at most one of the two is
// non-zero, except for rows whose layout printed both columns (Positional):
// those keep both values as printed. The reconciler repairs or flags
// everything else before it reaches a Ledger.
type TransactionRecord struct {
	Date        time.Time
	RawMerchant string
	Merchant    string // normalized lookup key, see lex.NormalizeMerchant
	Category    Category
	Withdrawal  decimal.Decimal
	Deposit     decimal.Decimal
	Balance     decimal.NullDecimal
	Type        string // free-text transaction type label, when the layout exposes one

	// Anchor marks non-transactional balance rows (B/F, C/F). Anchors are
	// excluded from withdrawal/deposit totals but participate in the
	// balance-chain check.
	Anchor bool

	// Positional marks a row whose statement layout printed separate
	// withdrawal and deposit columns. Both values are trusted as printed,
	// so the one-side-only rule does not apply.
	Positional bool

	// Unreconciled marks a record whose balance chain could not be made
	// consistent. The record is retained rather than dropped.
	Unreconciled bool
}

// HasWithdrawal reports whether the record carries a withdrawal amount.
func (r *TransactionRecord) HasWithdrawal() bool { return !r.Withdrawal.IsZero() }

// HasDeposit reports whether the record carries a deposit amount.
func (r *TransactionRecord) HasDeposit() bool { return !r.Deposit.IsZero() }

// Amount returns the single transaction amount: the deposit if present,
// otherwise the withdrawal. Zero for records with neither.
func (r *TransactionRecord) Amount() decimal.Decimal {
	if r.HasDeposit() {
		return r.Deposit
	}
	return r.Withdrawal
}

// Ledger is an ordered sequence of reconciled records plus the warnings
// accumulated while producing them. Records are immutable once appended
// except for category assignment; aggregates are computed views, never
// stored fields.
type Ledger struct {
	records  []TransactionRecord
	warnings []string
	grammar  string // name of the grammar that produced the records
}

// NewLedger creates an empty ledger tagged with the winning grammar name.
func NewLedger(grammar string) *Ledger {
	return &Ledger{
		records:  []TransactionRecord{},
		warnings: []string{},
		grammar:  grammar,
	}
}

// Append adds a record. A record with both sides set is rejected unless
// the columns are positional or the record is flagged unreconciled: both
// kinds are retained for completeness.
func (l *Ledger) Append(rec TransactionRecord) error {
	if rec.HasWithdrawal() && rec.HasDeposit() && !rec.Positional && !rec.Unreconciled {
		return fmt.Errorf("record %q has both withdrawal and deposit set", rec.RawMerchant)
	}
	if rec.Date.IsZero() {
		return fmt.Errorf("record %q has no date", rec.RawMerchant)
	}
	l.records = append(l.records, rec)
	return nil
}

// AddWarning records a non-fatal diagnostic.
func (l *Ledger) AddWarning(w string) {
	l.warnings = append(l.warnings, w)
}

// Records returns a defensive copy of the record sequence.
func (l *Ledger) Records() []TransactionRecord {
	return append([]TransactionRecord(nil), l.records...)
}

// Warnings returns a defensive copy of the accumulated warnings.
func (l *Ledger) Warnings() []string {
	return append([]string(nil), l.warnings...)
}

// Grammar returns the name of the grammar that matched the source document.
func (l *Ledger) Grammar() string { return l.grammar }

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// OpeningBalance returns the balance of the opening anchor row. Without a
// detected anchor no opening balance is claimed: the first transaction
// row's balance already includes that transaction.
func (l *Ledger) OpeningBalance() decimal.NullDecimal {
	for _, r := range l.records {
		if r.Anchor && r.Balance.Valid {
			return r.Balance
		}
	}
	return decimal.NullDecimal{}
}

// ClosingBalance returns the balance of the last record carrying one.
func (l *Ledger) ClosingBalance() decimal.NullDecimal {
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Balance.Valid {
			return l.records[i].Balance
		}
	}
	return decimal.NullDecimal{}
}

// TotalWithdrawals sums withdrawals over non-anchor rows.
func (l *Ledger) TotalWithdrawals() decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.records {
		if !r.Anchor {
			total = total.Add(r.Withdrawal)
		}
	}
	return total
}

// TotalDeposits sums deposits over non-anchor rows.
func (l *Ledger) TotalDeposits() decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.records {
		if !r.Anchor {
			total = total.Add(r.Deposit)
		}
	}
	return total
}

// Uncategorized returns the indexes of non-anchor records without a
// category, in order. This is the interactive assignment queue.
func (l *Ledger) Uncategorized() []int {
	var idx []int
	for i, r := range l.records {
		if r.Category == "" && !r.Anchor {
			idx = append(idx, i)
		}
	}
	return idx
}

// SetCategory assigns a category to the record at index i. Category
// assignment is the one permitted post-append mutation.
func (l *Ledger) SetCategory(i int, c Category) error {
	if i < 0 || i >= len(l.records) {
		return fmt.Errorf("record index %d out of range [0,%d)", i, len(l.records))
	}
	l.records[i].Category = c
	return nil
}
