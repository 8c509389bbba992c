// Package grammar defines the extractor strategy interface and the raw
// token type produced by every statement grammar.
package grammar

import (
	"fmt"
)

// Grammar is the strategy interface for statement-dialect extractors.
// Implementations are stateless pure functions over the input text and are
// safe for concurrent use.
type Grammar interface {
	// Name returns the grammar identifier (e.g. "column", "three-number").
	Name() string

	// Extract scans raw statement text and returns candidate tokens in
	// order of appearance. An empty result means the dialect did not match;
	// it is never an error.
	Extract(text string, year int) []Token
}

// LayoutGrammar is the capability interface for grammars that consume
// style-tagged spans instead of flat text.
type LayoutGrammar interface {
	Grammar

	// ExtractSpans scans styled spans. Grammars implementing this ignore
	// the flat-text Extract path when spans are available.
	ExtractSpans(spans []Span, year int) []Token
}

// Span is one styled text run from a layout-aware document source.
type Span struct {
	Text     string
	Bold     bool
	Position int
	FontSize float64
}

// Token is a matched statement row before reconciliation: the date and
// merchant text plus the ordered numeric candidates whose roles
// (withdrawal/deposit/balance) are not yet known. Ephemeral: produced by
// exactly one grammar, consumed by the reconciler.
type Token struct {
	position         int
	dateText         string
	merchantText     string
	infoText         string
	typeText         string
	amountCandidates []string
	balanceText      string
	bold             bool
	allCaps          bool
}

// NewToken creates a validated token. Position is the match offset inside
// the source, used only for diagnostics and ordering.
func NewToken(position int, dateText, merchantText string, amountCandidates []string) (*Token, error) {
	if dateText == "" {
		return nil, fmt.Errorf("token date text cannot be empty")
	}
	if merchantText == "" {
		return nil, fmt.Errorf("token merchant text cannot be empty")
	}
	return &Token{
		position:         position,
		dateText:         dateText,
		merchantText:     merchantText,
		amountCandidates: append([]string(nil), amountCandidates...),
	}, nil
}

// Position returns the match offset inside the source document.
func (t *Token) Position() int { return t.position }

// DateText returns the raw date text ("17 JAN").
func (t *Token) DateText() string { return t.dateText }

// MerchantText returns the raw merchant/description text.
func (t *Token) MerchantText() string { return t.merchantText }

// InfoText returns auxiliary text captured after the description.
func (t *Token) InfoText() string { return t.infoText }

// TypeText returns the transaction-type header, when the layout exposes one.
func (t *Token) TypeText() string { return t.typeText }

// AmountCandidates returns the ordered raw amount strings (0-3 entries).
func (t *Token) AmountCandidates() []string {
	return append([]string(nil), t.amountCandidates...)
}

// BalanceText returns the raw running-balance string for dialects whose
// trailing numeric run is known to be a balance. Empty when the dialect
// carries no balance column.
func (t *Token) BalanceText() string { return t.balanceText }

// HasBalance reports whether the token carries a running balance.
func (t *Token) HasBalance() bool { return t.balanceText != "" }

// Bold reports whether the merchant text came from an emphasized span.
func (t *Token) Bold() bool { return t.bold }

// AllCaps reports whether the merchant line was fully upper-case.
func (t *Token) AllCaps() bool { return t.allCaps }

// SetInfoText sets the auxiliary info text.
func (t *Token) SetInfoText(info string) { t.infoText = info }

// SetTypeText sets the transaction-type label.
func (t *Token) SetTypeText(typ string) { t.typeText = typ }

// SetBalanceText sets the raw running-balance string.
func (t *Token) SetBalanceText(raw string) { t.balanceText = raw }

// SetBold marks the token as originating from an emphasized span.
func (t *Token) SetBold(bold bool) { t.bold = bold }

// SetAllCaps marks the token's merchant line as fully upper-case.
func (t *Token) SetAllCaps(allCaps bool) { t.allCaps = allCaps }

// AppendAmountCandidate adds a raw amount string in statement order.
func (t *Token) AppendAmountCandidate(raw string) {
	t.amountCandidates = append(t.amountCandidates, raw)
}
