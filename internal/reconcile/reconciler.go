package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerhound/stmtledger/internal/domain"
	"github.com/ledgerhound/stmtledger/internal/grammar"
	"github.com/ledgerhound/stmtledger/internal/lex"
)

// Reconciler turns raw grammar tokens into transaction records with the
// withdrawal/deposit/balance roles resolved.
type Reconciler struct {
	cfg        *Config
	normalizer *lex.Normalizer
}

// New creates a reconciler. A nil normalizer uses the default noise set.
func New(cfg *Config, normalizer *lex.Normalizer) *Reconciler {
	if normalizer == nil {
		normalizer = lex.NewNormalizer(lex.DefaultNoisePhrases, false)
	}
	return &Reconciler{cfg: cfg, normalizer: normalizer}
}

// Reconcile converts tokens into records, applying the classification policy
// in priority order:
//
//  1. two amounts plus a balance: statement column order, first is
//     withdrawal, second deposit, no inference;
//  2. one amount: credit-keyword match on description/type means deposit;
//  3. otherwise, balance diff against the previous known balance;
//  4. otherwise, the configured default direction.
//
// A second pass (Repair, called internally) re-checks the assembled sequence
// against the running-balance chain. Malformed dates or amounts drop the
// offending candidate and scanning continues; nothing here aborts the run.
func (r *Reconciler) Reconcile(tokens []grammar.Token, year int) ([]domain.TransactionRecord, []string) {
	var records []domain.TransactionRecord
	var warnings []string
	var prevBalance decimal.NullDecimal

	for _, tok := range tokens {
		date, err := lex.ParseDayMonth(tok.DateText(), year)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped token at offset %d: %v", tok.Position(), err))
			continue
		}

		var amounts []decimal.Decimal
		for _, raw := range tok.AmountCandidates() {
			amt, err := lex.ParseAmount(raw)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("dropped amount candidate %q at offset %d: %v", raw, tok.Position(), err))
				continue
			}
			amounts = append(amounts, amt)
		}

		var balance decimal.NullDecimal
		if tok.HasBalance() {
			if bal, err := lex.ParseAmount(tok.BalanceText()); err == nil {
				balance = decimal.NewNullDecimal(bal)
			} else {
				warnings = append(warnings, fmt.Sprintf("dropped balance candidate %q at offset %d: %v", tok.BalanceText(), tok.Position(), err))
			}
		}

		rec := domain.TransactionRecord{
			Date:        date,
			RawMerchant: rawMerchant(tok),
			Merchant:    r.normalizer.Normalize(tok.MerchantText(), tok.InfoText()),
			Balance:     balance,
			Type:        tok.TypeText(),
		}
		rec.Anchor = r.isAnchor(rec.Merchant)

		switch {
		case len(amounts) >= 2 && balance.Valid:
			// Statement-defined column order. Both sides stay set; the
			// balance-chain pass decides whether that is consistent.
			rec.Withdrawal = amounts[0]
			rec.Deposit = amounts[1]
			rec.Positional = true
		case len(amounts) >= 1:
			r.classifySingle(&rec, amounts[0], prevBalance)
		}

		r.applyCorrections(&rec)

		records = append(records, rec)
		if balance.Valid {
			prevBalance = balance
		}
	}

	repairWarnings := r.repair(records)
	return records, append(warnings, repairWarnings...)
}

// rawMerchant joins the token's description and info text the way the
// statement printed them.
func rawMerchant(tok grammar.Token) string {
	if info := tok.InfoText(); info != "" {
		return strings.TrimSpace(tok.MerchantText() + " " + info)
	}
	return strings.TrimSpace(tok.MerchantText())
}

// classifySingle resolves a one-amount row: keyword, then balance diff, then
// the configured default bias.
func (r *Reconciler) classifySingle(rec *domain.TransactionRecord, amt decimal.Decimal, prevBalance decimal.NullDecimal) {
	haystack := strings.ToLower(rec.Merchant + " " + rec.Type)
	for _, kw := range r.cfg.CreditKeywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			rec.Deposit = amt
			return
		}
	}

	if prevBalance.Valid && rec.Balance.Valid {
		if rec.Balance.Decimal.GreaterThan(prevBalance.Decimal) {
			rec.Deposit = amt
		} else {
			rec.Withdrawal = amt
		}
		return
	}

	if r.cfg.DefaultDirection == DirectionDeposit {
		rec.Deposit = amt
	} else {
		rec.Withdrawal = amt
	}
}

// applyCorrections applies the declarative vendor-quirk table.
func (r *Reconciler) applyCorrections(rec *domain.TransactionRecord) {
	haystack := strings.ToLower(rec.Merchant + " " + rec.Type)
	for _, corr := range r.cfg.Corrections {
		if !strings.Contains(haystack, strings.ToLower(corr.Match)) {
			continue
		}
		amt := rec.Amount()
		if amt.IsZero() {
			continue
		}
		switch corr.Action {
		case ActionForceDeposit:
			rec.Deposit = amt
			rec.Withdrawal = decimal.Zero
		case ActionForceWithdrawal:
			rec.Withdrawal = amt
			rec.Deposit = decimal.Zero
		}
	}
}

// isAnchor reports whether the normalized merchant marks a balance
// brought-forward / carried-forward row.
func (r *Reconciler) isAnchor(merchant string) bool {
	m := strings.ToLower(merchant)
	for _, p := range r.cfg.AnchorPatterns {
		if strings.Contains(m, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// repair walks the assembled sequence a second time. Records with both
// sides set from grammar ambiguity are resolved against the balance delta;
// positionally assigned records are trusted as printed. Any record whose
// balance chain cannot be made consistent is flagged unreconciled and
// retained.
func (r *Reconciler) repair(records []domain.TransactionRecord) []string {
	var warnings []string
	tol := r.cfg.Tolerance()

	var prevBalance decimal.NullDecimal
	for i := range records {
		rec := &records[i]

		if rec.HasWithdrawal() && rec.HasDeposit() && !rec.Positional && prevBalance.Valid && rec.Balance.Valid {
			delta := rec.Balance.Decimal.Sub(prevBalance.Decimal)
			switch {
			case delta.IsPositive() && delta.Sub(rec.Deposit).Abs().LessThanOrEqual(tol):
				rec.Withdrawal = decimal.Zero
			case delta.IsNegative() && delta.Neg().Sub(rec.Withdrawal).Abs().LessThanOrEqual(tol):
				rec.Deposit = decimal.Zero
			default:
				rec.Unreconciled = true
				warnings = append(warnings, fmt.Sprintf(
					"record %d (%s): ambiguous amounts disagree with balance delta %s, kept unreconciled",
					i, rec.RawMerchant, delta.StringFixed(2)))
			}
		}

		if prevBalance.Valid && rec.Balance.Valid {
			expected := prevBalance.Decimal.Add(rec.Deposit).Sub(rec.Withdrawal)
			if expected.Sub(rec.Balance.Decimal).Abs().GreaterThan(tol) {
				rec.Unreconciled = true
				warnings = append(warnings, fmt.Sprintf(
					"record %d (%s): balance chain broken, expected %s got %s",
					i, rec.RawMerchant, expected.StringFixed(2), rec.Balance.Decimal.StringFixed(2)))
			}
		}

		if rec.Balance.Valid {
			prevBalance = rec.Balance
		}
	}

	return warnings
}
