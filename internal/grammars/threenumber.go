package grammars

import (
	"regexp"
	"strings"

	"github.com/ledgerhound/stmtledger/internal/grammar"
	"github.com/ledgerhound/stmtledger/internal/lex"
)

// ThreeNumber matches running-balance account ledgers:
//
//	01 Mar  GIRO PAYMENT AcmeCorp   250.00            1,750.00
//	05 Mar  INWARD CREDIT SALARY             4,100.00 5,850.00
//
// The trailing numeric run on a row is always the running balance; the 0-2
// preceding numbers are the transaction amounts. The description is captured
// lazily up to the first numeric run so multi-line merchant names do not
// swallow amounts.
type ThreeNumber struct{}

var threeNumberInstance = &ThreeNumber{}

// NewThreeNumber returns the shared instance; the grammar is stateless.
func NewThreeNumber() *ThreeNumber { return threeNumberInstance }

// Name returns the grammar identifier.
func (g *ThreeNumber) Name() string { return "three-number" }

// threeNumberPattern: date, lazy description, then 1-3 numeric runs, all on
// one row. Multi-line merchant names are the structural dialect's job; the
// lazy description stops at the first numeric run on the row.
var threeNumberPattern = regexp.MustCompile(
	`(?P<date>\d{2} [A-Za-z]{3})` +
		`[ \t]+` +
		`(?P<desc>.+?)` +
		`[ \t]+` +
		`(?P<n1>\d{1,3}(?:,\d{3})*\.\d{2})` +
		`(?:[ \t]+(?P<n2>\d{1,3}(?:,\d{3})*\.\d{2}))?` +
		`(?:[ \t]+(?P<n3>\d{1,3}(?:,\d{3})*\.\d{2}))?`,
)

// Extract scans text for balance-column rows. The last numeric run of each
// match is recorded as the balance; the rest are amount candidates.
func (g *ThreeNumber) Extract(text string, year int) []grammar.Token {
	var tokens []grammar.Token
	idxs := threeNumberPattern.FindAllStringSubmatchIndex(text, -1)
	matches := threeNumberPattern.FindAllStringSubmatch(text, -1)
	for i, m := range matches {
		date := group(threeNumberPattern, m, "date")
		if _, err := lex.ParseDayMonth(date, year); err != nil {
			continue
		}

		var numbers []string
		for _, name := range []string{"n1", "n2", "n3"} {
			if raw := group(threeNumberPattern, m, name); raw != "" {
				if _, err := lex.ParseAmount(raw); err != nil {
					continue
				}
				numbers = append(numbers, raw)
			}
		}
		if len(numbers) == 0 {
			continue
		}
		balance := numbers[len(numbers)-1]
		amounts := numbers[:len(numbers)-1]

		desc := collapseWhitespace(group(threeNumberPattern, m, "desc"))
		tok, err := grammar.NewToken(idxs[i][0], date, desc, amounts)
		if err != nil {
			continue
		}
		tok.SetBalanceText(balance)
		tok.SetAllCaps(desc != "" && desc == strings.ToUpper(desc))
		tokens = append(tokens, *tok)
	}
	return tokens
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// collapseWhitespace folds newlines and runs of spaces into single spaces.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
