package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerhound/stmtledger/internal/grammar"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func mustToken(t *testing.T, date, merchant string, amounts []string) grammar.Token {
	t.Helper()
	tok, err := grammar.NewToken(0, date, merchant, amounts)
	require.NoError(t, err)
	return *tok
}

func newReconciler(t *testing.T) *Reconciler {
	t.Helper()
	cfg, err := LoadEmbedded()
	require.NoError(t, err)
	return New(cfg, nil)
}

func TestReconcile_SingleAmountDefaultsToWithdrawal(t *testing.T) {
	r := newReconciler(t)
	tok := mustToken(t, "17 JAN", "FAIRPRICE FINEST SINGAPORE SG", []string{"12.10"})

	records, warnings := r.Reconcile([]grammar.Token{tok}, 2024)
	require.Len(t, records, 1)
	assert.Empty(t, warnings)

	rec := records[0]
	assert.Equal(t, "2024-01-17", rec.Date.Format("2006-01-02"))
	assert.Equal(t, "fairprice finest", rec.Merchant)
	assert.True(t, rec.Withdrawal.Equal(mustDecimal(t, "12.10")))
	assert.False(t, rec.HasDeposit())
}

func TestReconcile_CreditKeywordMeansDeposit(t *testing.T) {
	r := newReconciler(t)
	tok := mustToken(t, "05 FEB", "INWARD CREDIT ACME PAYROLL", []string{"3200.00"})

	records, _ := r.Reconcile([]grammar.Token{tok}, 2024)
	require.Len(t, records, 1)
	assert.True(t, records[0].Deposit.Equal(mustDecimal(t, "3200.00")))
	assert.False(t, records[0].HasWithdrawal())
}

func TestReconcile_BalanceDiffClassifies(t *testing.T) {
	r := newReconciler(t)

	anchor := mustToken(t, "01 MAR", "BALANCE B/F", nil)
	anchor.SetBalanceText("1000.00")

	up := mustToken(t, "02 MAR", "ACME TRANSFER IN", []string{"250.00"})
	up.SetBalanceText("1250.00")

	down := mustToken(t, "03 MAR", "GROCER PURCHASE", []string{"50.00"})
	down.SetBalanceText("1200.00")

	records, warnings := r.Reconcile([]grammar.Token{anchor, up, down}, 2024)
	require.Len(t, records, 3)
	assert.Empty(t, warnings)

	assert.True(t, records[0].Anchor)
	assert.True(t, records[1].Deposit.Equal(mustDecimal(t, "250.00")), "rising balance is a deposit")
	assert.True(t, records[2].Withdrawal.Equal(mustDecimal(t, "50.00")), "falling balance is a withdrawal")
}

func TestReconcile_TwoAmountsArePositional(t *testing.T) {
	r := newReconciler(t)

	anchor := mustToken(t, "01 APR", "BALANCE B/F", nil)
	anchor.SetBalanceText("1200.00")

	// Both columns printed on one row. Column order wins even though the
	// balance delta only accounts for part of it.
	both := mustToken(t, "02 APR", "SALARY AND FEES", []string{"50.00", "1200.00"})
	both.SetBalanceText("1150.00")

	records, warnings := r.Reconcile([]grammar.Token{anchor, both}, 2024)
	require.Len(t, records, 2)

	rec := records[1]
	assert.True(t, rec.Positional)
	assert.True(t, rec.Withdrawal.Equal(mustDecimal(t, "50.00")))
	assert.True(t, rec.Deposit.Equal(mustDecimal(t, "1200.00")))
	assert.True(t, rec.Unreconciled, "broken balance chain is flagged, not repaired")
	assert.NotEmpty(t, warnings)
}

func TestReconcile_ConsistentTwoAmountRowIsClean(t *testing.T) {
	r := newReconciler(t)

	anchor := mustToken(t, "01 APR", "BALANCE B/F", nil)
	anchor.SetBalanceText("1000.00")

	// 1000 - 50 + 1200 = 2150: the chain confirms both columns.
	both := mustToken(t, "02 APR", "SALARY AND FEES", []string{"50.00", "1200.00"})
	both.SetBalanceText("2150.00")

	records, warnings := r.Reconcile([]grammar.Token{anchor, both}, 2024)
	require.Len(t, records, 2)

	rec := records[1]
	assert.True(t, rec.Positional)
	assert.False(t, rec.Unreconciled)
	assert.True(t, rec.Withdrawal.Equal(mustDecimal(t, "50.00")))
	assert.True(t, rec.Deposit.Equal(mustDecimal(t, "1200.00")))
	assert.Empty(t, warnings)
}

func TestReconcile_CorrectionForcesDeposit(t *testing.T) {
	cfg, err := NewConfig([]byte(`
credit_keywords: ["inward credit"]
default_direction: "withdrawal"
balance_tolerance: "0.01"
anchor_patterns: ["balance b f"]
corrections:
  - name: "fee rebates post as debits"
    match: "fee rebate"
    action: "force_deposit"
`))
	require.NoError(t, err)
	r := New(cfg, nil)

	// The default direction would call this a withdrawal; the corrections
	// table overrides it.
	rebate := mustToken(t, "31 MAY", "FEE REBATE", []string{"1.23"})

	records, _ := r.Reconcile([]grammar.Token{rebate}, 2024)
	require.Len(t, records, 1)
	assert.True(t, records[0].Deposit.Equal(mustDecimal(t, "1.23")))
	assert.False(t, records[0].HasWithdrawal())
}

func TestReconcile_MalformedTokensAreDropped(t *testing.T) {
	r := newReconciler(t)

	bad := mustToken(t, "99 XXX", "BROKEN ROW", []string{"10.00"})
	good := mustToken(t, "10 JUN", "GOOD ROW", []string{"10.00"})

	records, warnings := r.Reconcile([]grammar.Token{bad, good}, 2024)
	require.Len(t, records, 1)
	assert.Equal(t, "good row", records[0].Merchant)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "dropped token")
}

func TestReconcile_BalanceChainBreakFlagsUnreconciled(t *testing.T) {
	r := newReconciler(t)

	anchor := mustToken(t, "01 JUL", "BALANCE B/F", nil)
	anchor.SetBalanceText("100.00")

	skew := mustToken(t, "02 JUL", "GROCER PURCHASE", []string{"10.00"})
	skew.SetBalanceText("85.00")

	records, warnings := r.Reconcile([]grammar.Token{anchor, skew}, 2024)
	require.Len(t, records, 2)
	assert.True(t, records[1].Unreconciled)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "balance chain broken")
}

func TestReconcile_ToleranceAbsorbsRounding(t *testing.T) {
	r := newReconciler(t)

	anchor := mustToken(t, "01 AUG", "BALANCE B/F", nil)
	anchor.SetBalanceText("100.00")

	offByCent := mustToken(t, "02 AUG", "GROCER PURCHASE", []string{"10.00"})
	offByCent.SetBalanceText("90.01")

	records, warnings := r.Reconcile([]grammar.Token{anchor, offByCent}, 2024)
	require.Len(t, records, 2)
	assert.False(t, records[1].Unreconciled)
	assert.Empty(t, warnings)
}
