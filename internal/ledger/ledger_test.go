package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerhound/stmtledger/internal/domain"
)

func rec(t *testing.T, day int, merchant, withdrawal, deposit string) domain.TransactionRecord {
	t.Helper()
	r := domain.TransactionRecord{
		Date:        time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		RawMerchant: merchant,
		Merchant:    merchant,
	}
	if withdrawal != "" {
		r.Withdrawal = decimal.RequireFromString(withdrawal)
	}
	if deposit != "" {
		r.Deposit = decimal.RequireFromString(deposit)
	}
	return r
}

func TestAssemble_OrdersByDateStable(t *testing.T) {
	records := []domain.TransactionRecord{
		rec(t, 5, "later", "10.00", ""),
		rec(t, 1, "first same day", "20.00", ""),
		rec(t, 1, "second same day", "30.00", ""),
	}

	l, err := Assemble(records, "column", []string{"a warning"})
	require.NoError(t, err)

	got := l.Records()
	require.Len(t, got, 3)
	assert.Equal(t, "first same day", got[0].Merchant)
	assert.Equal(t, "second same day", got[1].Merchant)
	assert.Equal(t, "later", got[2].Merchant)
	assert.Equal(t, []string{"a warning"}, l.Warnings())
	assert.Equal(t, "column", l.Grammar())
}

func TestAssemble_RejectsBothSidesSet(t *testing.T) {
	bad := rec(t, 1, "broken", "10.00", "20.00")
	_, err := Assemble([]domain.TransactionRecord{bad}, "column", nil)
	assert.Error(t, err)

	// Flagged records are allowed through for review.
	bad.Unreconciled = true
	l, err := Assemble([]domain.TransactionRecord{bad}, "column", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())

	// Rows whose layout printed both columns pass without a flag.
	columns := rec(t, 2, "salary and fees", "50.00", "1200.00")
	columns.Positional = true
	l, err = Assemble([]domain.TransactionRecord{columns}, "three-number", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestScanTrailer(t *testing.T) {
	text := `01 MAR GROCER 12.10
Total Withdrawals 1,234.56
Total Deposits 789.00
`
	tr, ok := ScanTrailer(text)
	require.True(t, ok)
	require.True(t, tr.Withdrawals.Valid)
	require.True(t, tr.Deposits.Valid)
	assert.True(t, tr.Withdrawals.Decimal.Equal(decimal.RequireFromString("1234.56")))
	assert.True(t, tr.Deposits.Decimal.Equal(decimal.RequireFromString("789.00")))
}

func TestScanTrailer_SingularAndMissing(t *testing.T) {
	tr, ok := ScanTrailer("Total Withdrawal 50.00\n")
	require.True(t, ok)
	assert.True(t, tr.Withdrawals.Valid)
	assert.False(t, tr.Deposits.Valid)

	_, ok = ScanTrailer("no totals here\n")
	assert.False(t, ok)
}

func TestCheckTrailer(t *testing.T) {
	l, err := Assemble([]domain.TransactionRecord{
		rec(t, 1, "grocer", "50.00", ""),
		rec(t, 2, "salary", "", "1000.00"),
	}, "column", nil)
	require.NoError(t, err)

	tol := decimal.RequireFromString("0.01")

	match := Trailer{
		Withdrawals: decimal.NewNullDecimal(decimal.RequireFromString("50.00")),
		Deposits:    decimal.NewNullDecimal(decimal.RequireFromString("1000.00")),
	}
	assert.Empty(t, CheckTrailer(l, match, tol))

	mismatch := Trailer{
		Withdrawals: decimal.NewNullDecimal(decimal.RequireFromString("60.00")),
	}
	warnings := CheckTrailer(l, mismatch, tol)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "withdrawal total")
}

func TestCheckTrailer_SkipsAnchors(t *testing.T) {
	anchor := rec(t, 1, "balance b f", "", "")
	anchor.Anchor = true
	anchor.Balance = decimal.NewNullDecimal(decimal.RequireFromString("500.00"))

	l, err := Assemble([]domain.TransactionRecord{
		anchor,
		rec(t, 2, "grocer", "50.00", ""),
	}, "column", nil)
	require.NoError(t, err)

	tr := Trailer{Withdrawals: decimal.NewNullDecimal(decimal.RequireFromString("50.00"))}
	assert.Empty(t, CheckTrailer(l, tr, decimal.RequireFromString("0.01")))
}
