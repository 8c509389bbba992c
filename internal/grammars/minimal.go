package grammars

import (
	"regexp"
	"strings"

	"github.com/ledgerhound/stmtledger/internal/grammar"
	"github.com/ledgerhound/stmtledger/internal/lex"
)

// MinimalLine is the last-resort dialect: a line starting with a known
// transaction-type keyword opens a record, the first later line containing a
// decimal amount supplies the amount, and everything between is description.
// Unlike the structural dialect it accepts dates and amounts embedded
// anywhere in a line, which lets it salvage layouts the stricter grammars
// reject.
type MinimalLine struct{}

var minimalLineInstance = &MinimalLine{}

// NewMinimalLine returns the shared instance; the grammar is stateless.
func NewMinimalLine() *MinimalLine { return minimalLineInstance }

// Name returns the grammar identifier.
func (g *MinimalLine) Name() string { return "minimal-line" }

var dayMonthAnywhere = regexp.MustCompile(`\b\d{2} [A-Za-z]{3}\b`)

// Extract walks the text line by line. A record closes as soon as its amount
// arrives; a keyword line seen while a record is still waiting for an amount
// replaces it (the earlier fragment had no amount and is dropped).
func (g *MinimalLine) Extract(text string, year int) []grammar.Token {
	var tokens []grammar.Token
	var cur *pendingRecord
	position := 0

	consume := func(line string) (done bool) {
		if cur.dateText == "" {
			if m := dayMonthAnywhere.FindString(line); m != "" {
				cur.dateText = m
				line = strings.TrimSpace(strings.Replace(line, m, " ", 1))
			}
		}
		if m := lex.AmountToken.FindString(line); m != "" {
			cur.amounts = append(cur.amounts, m)
			line = strings.TrimSpace(strings.Replace(line, m, " ", 1))
			done = true
		}
		if line = collapseWhitespace(line); line != "" {
			cur.desc = append(cur.desc, line)
		}
		return done
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		lineStart := position
		position += len(rawLine) + 1
		if line == "" {
			continue
		}

		if hasTypeKeywordPrefix(line) {
			cur = &pendingRecord{position: lineStart, typeText: firstWord(line)}
			// The opening line itself may carry the amount.
			if consume(line) {
				if tok := finishMinimal(cur, year); tok != nil {
					tokens = append(tokens, *tok)
				}
				cur = nil
			}
			continue
		}
		if cur == nil {
			continue
		}
		if consume(line) {
			if tok := finishMinimal(cur, year); tok != nil {
				tokens = append(tokens, *tok)
			}
			cur = nil
		}
	}

	return tokens
}

// finishMinimal converts an accumulated record into a token, or nil when the
// record never saw a parseable date.
func finishMinimal(cur *pendingRecord, year int) *grammar.Token {
	if cur.dateText == "" {
		return nil
	}
	if _, err := lex.ParseDayMonth(cur.dateText, year); err != nil {
		return nil
	}
	merchant := strings.TrimSpace(strings.Join(cur.desc, " "))
	if merchant == "" {
		merchant = cur.typeText
	}
	tok, err := grammar.NewToken(cur.position, cur.dateText, merchant, cur.amounts)
	if err != nil {
		return nil
	}
	tok.SetTypeText(cur.typeText)
	tok.SetInfoText(strings.TrimSpace(strings.Join(cur.info, " ")))
	return tok
}
