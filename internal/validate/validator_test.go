package validate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerhound/stmtledger/internal/domain"
)

func record(day int, merchant string, withdrawal, deposit, balance string) domain.TransactionRecord {
	rec := domain.TransactionRecord{
		Date:     time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC),
		Merchant: merchant,
		Category: domain.CategoryOther,
	}
	if withdrawal != "" {
		rec.Withdrawal = decimal.RequireFromString(withdrawal)
	}
	if deposit != "" {
		rec.Deposit = decimal.RequireFromString(deposit)
	}
	if balance != "" {
		rec.Balance = decimal.NewNullDecimal(decimal.RequireFromString(balance))
	}
	return rec
}

func buildLedger(t *testing.T, records ...domain.TransactionRecord) *domain.Ledger {
	t.Helper()
	l := domain.NewLedger("column")
	for _, rec := range records {
		if err := l.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	return l
}

func TestValidateLedger_Clean(t *testing.T) {
	l := buildLedger(t,
		record(1, "balance b f", "", "", "100.00"),
		record(2, "grocer", "10.00", "", "90.00"),
		record(3, "payroll", "", "50.00", "140.00"),
	)

	result := ValidateLedger(l)
	if !result.IsValid() {
		t.Errorf("ValidateLedger() errors = %v, want none", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("ValidateLedger() warnings = %v, want none", result.Warnings)
	}
}

func TestValidateLedger_EmptyMerchant(t *testing.T) {
	rec := record(1, "", "10.00", "", "")
	result := ValidateLedger(buildLedger(t, rec))

	if result.IsValid() {
		t.Fatal("ValidateLedger() expected errors")
	}
	if result.Errors[0].Field != "Merchant" {
		t.Errorf("error field = %s, want Merchant", result.Errors[0].Field)
	}
}

func TestValidateLedger_DateOrder(t *testing.T) {
	l := buildLedger(t,
		record(5, "later", "10.00", "", ""),
		record(1, "earlier", "10.00", "", ""),
	)

	result := ValidateLedger(l)
	if result.IsValid() {
		t.Fatal("ValidateLedger() expected date-order error")
	}

	found := false
	for _, e := range result.Errors {
		if e.Field == "Date" && e.Record == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("ValidateLedger() errors = %v, want date-order error on record 1", result.Errors)
	}
}

func TestValidateLedger_UnreconciledIsWarning(t *testing.T) {
	rec := record(1, "odd row", "10.00", "20.00", "")
	rec.Unreconciled = true

	result := ValidateLedger(buildLedger(t, rec))
	if !result.IsValid() {
		t.Errorf("ValidateLedger() errors = %v, flagged records should not error", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("ValidateLedger() expected an unreconciled warning")
	}
}

func TestValidateLedger_PositionalBothSidesIsClean(t *testing.T) {
	rec := record(1, "salary and fees", "50.00", "1200.00", "")
	rec.Positional = true

	result := ValidateLedger(buildLedger(t, rec))
	if !result.IsValid() {
		t.Errorf("ValidateLedger() errors = %v, positional columns should not error", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("ValidateLedger() warnings = %v, want none", result.Warnings)
	}
}

func TestValidateLedger_UncategorizedWarning(t *testing.T) {
	rec := record(1, "mystery shop", "10.00", "", "")
	rec.Category = ""

	result := ValidateLedger(buildLedger(t, rec))
	if !result.IsValid() {
		t.Errorf("ValidateLedger() errors = %v, want none", result.Errors)
	}

	found := false
	for _, w := range result.Warnings {
		if w.Field == "Category" {
			found = true
		}
	}
	if !found {
		t.Errorf("ValidateLedger() warnings = %v, want uncategorized warning", result.Warnings)
	}
}

func TestValidateLedger_BalanceChainWarning(t *testing.T) {
	l := buildLedger(t,
		record(1, "balance b f", "", "", "100.00"),
		record(2, "grocer", "10.00", "", "85.00"),
	)

	result := ValidateLedger(l)
	if !result.IsValid() {
		t.Errorf("ValidateLedger() errors = %v, want none", result.Errors)
	}

	found := false
	for _, w := range result.Warnings {
		if w.Field == "Balance" {
			found = true
		}
	}
	if !found {
		t.Errorf("ValidateLedger() warnings = %v, want balance-chain warning", result.Warnings)
	}
}
