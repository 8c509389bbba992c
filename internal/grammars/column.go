// Package grammars holds the built-in statement dialect extractors. Each
// grammar is stateless and reports an empty token list when its dialect does
// not match; the extraction chain decides which result wins.
package grammars

import (
	"regexp"
	"strings"

	"github.com/ledgerhound/stmtledger/internal/grammar"
	"github.com/ledgerhound/stmtledger/internal/lex"
)

// group extracts a named subexpression from a regexp match.
func group(re *regexp.Regexp, match []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(match) {
		return ""
	}
	return match[idx]
}

// Column matches simple one-amount-per-line card ledgers:
//
//	17 JAN  FAIRPRICE FINEST  SINGAPORE SG  12.10
//
// The location run between merchant and amount is captured as auxiliary
// info. No balance column exists in this dialect.
type Column struct{}

var columnInstance = &Column{}

// NewColumn returns the shared instance; the grammar is stateless.
func NewColumn() *Column { return columnInstance }

// Name returns the grammar identifier.
func (g *Column) Name() string { return "column" }

// columnPattern mirrors the card-statement row shape: DATE, merchant
// (non-greedy), 1-3 upper-case location words, amount. The amount closes
// the line, which keeps running-balance rows (two numeric columns) out of
// this dialect.
var columnPattern = regexp.MustCompile(
	`(?m)(?P<date>\d{2} [A-Za-z]{3})` +
		`[ \t]+` +
		`(?P<merchant>.+?)` +
		`[ \t]+` +
		`(?P<info>(?:[A-Z]+[ \t]+){1,3})` +
		`(?P<amount>\d+\.\d{2})[ \t]*$`,
)

// Extract scans text row-wise. Rows whose date or amount fails to parse are
// skipped, never fatal.
func (g *Column) Extract(text string, year int) []grammar.Token {
	var tokens []grammar.Token
	idxs := columnPattern.FindAllStringSubmatchIndex(text, -1)
	matches := columnPattern.FindAllStringSubmatch(text, -1)
	for i, m := range matches {
		date := group(columnPattern, m, "date")
		amount := group(columnPattern, m, "amount")
		if _, err := lex.ParseDayMonth(date, year); err != nil {
			continue
		}
		if _, err := lex.ParseAmount(amount); err != nil {
			continue
		}
		tok, err := grammar.NewToken(idxs[i][0], date, strings.TrimSpace(group(columnPattern, m, "merchant")), []string{amount})
		if err != nil {
			continue
		}
		tok.SetInfoText(strings.TrimSpace(group(columnPattern, m, "info")))
		tokens = append(tokens, *tok)
	}
	return tokens
}
