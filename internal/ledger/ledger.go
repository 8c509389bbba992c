// Package ledger assembles reconciled records into an ordered ledger and
// cross-checks its aggregates against the statement's own printed totals.
package ledger

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ledgerhound/stmtledger/internal/domain"
	"github.com/ledgerhound/stmtledger/internal/lex"
)

// Assemble orders records by date and builds the ledger. The sort is
// stable, so rows sharing a date keep their statement order. Reconciliation
// warnings ride along on the ledger.
func Assemble(records []domain.TransactionRecord, grammarName string, warnings []string) (*domain.Ledger, error) {
	ordered := append([]domain.TransactionRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	l := domain.NewLedger(grammarName)
	for i, rec := range ordered {
		if err := l.Append(rec); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.RawMerchant, err)
		}
	}
	for _, w := range warnings {
		l.AddWarning(w)
	}
	return l, nil
}

// Trailer holds the statement's own printed totals, when present.
type Trailer struct {
	Withdrawals decimal.NullDecimal
	Deposits    decimal.NullDecimal
}

var (
	trailerWithdrawals = regexp.MustCompile(`(?im)^[ \t]*total[ \t]+withdrawals?\b[^0-9]*(` + lex.AmountToken.String() + `)`)
	trailerDeposits    = regexp.MustCompile(`(?im)^[ \t]*total[ \t]+deposits?\b[^0-9]*(` + lex.AmountToken.String() + `)`)
)

// ScanTrailer looks for the totals trailer a statement prints after its last
// transaction row. Either side may be missing; ok reports whether at least
// one was found.
func ScanTrailer(text string) (Trailer, bool) {
	var tr Trailer
	if m := trailerWithdrawals.FindStringSubmatch(text); m != nil {
		if amt, err := lex.ParseAmount(m[1]); err == nil {
			tr.Withdrawals = decimal.NewNullDecimal(amt)
		}
	}
	if m := trailerDeposits.FindStringSubmatch(text); m != nil {
		if amt, err := lex.ParseAmount(m[1]); err == nil {
			tr.Deposits = decimal.NewNullDecimal(amt)
		}
	}
	return tr, tr.Withdrawals.Valid || tr.Deposits.Valid
}

// CheckTrailer compares the ledger aggregates against the printed totals
// and returns a warning per side that disagrees beyond the tolerance. The
// trailer is authoritative about what the statement contains, so a mismatch
// means rows were missed or misread.
func CheckTrailer(l *domain.Ledger, tr Trailer, tolerance decimal.Decimal) []string {
	var warnings []string
	if tr.Withdrawals.Valid {
		got := l.TotalWithdrawals()
		if got.Sub(tr.Withdrawals.Decimal).Abs().GreaterThan(tolerance) {
			warnings = append(warnings, fmt.Sprintf(
				"withdrawal total %s does not match statement trailer %s",
				got.StringFixed(2), tr.Withdrawals.Decimal.StringFixed(2)))
		}
	}
	if tr.Deposits.Valid {
		got := l.TotalDeposits()
		if got.Sub(tr.Deposits.Decimal).Abs().GreaterThan(tolerance) {
			warnings = append(warnings, fmt.Sprintf(
				"deposit total %s does not match statement trailer %s",
				got.StringFixed(2), tr.Deposits.Decimal.StringFixed(2)))
		}
	}
	return warnings
}
