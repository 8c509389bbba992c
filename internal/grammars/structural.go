package grammars

import (
	"strings"

	"github.com/ledgerhound/stmtledger/internal/grammar"
	"github.com/ledgerhound/stmtledger/internal/lex"
)

// typeKeywords are transaction-type words that open a record in the
// structural and minimal-line dialects. Statement vendors print these as the
// first word of a record block.
var typeKeywords = []string{
	"POS", "ATM", "NETS", "GIRO", "FAST", "PAYNOW",
	"PAYMENT", "TRANSFER", "INTEREST", "DEPOSIT", "WITHDRAWAL",
	"DEBIT", "CREDIT", "CHEQUE", "CASH",
}

// locationKeywords mark lines that are location noise rather than merchant
// description.
var locationKeywords = []string{"SINGAPORE", "SG"}

// hasTypeKeywordPrefix reports whether the line starts with a known
// transaction-type keyword.
func hasTypeKeywordPrefix(line string) bool {
	first := strings.ToUpper(firstWord(line))
	for _, kw := range typeKeywords {
		if first == kw {
			return true
		}
	}
	return false
}

func firstWord(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// isAllCapsLine reports whether the line contains letters and none of them
// are lower-case.
func isAllCapsLine(line string) bool {
	hasLetter := false
	for _, r := range line {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if (r >= 'A' && r <= 'Z') || r > 127 {
			hasLetter = true
		}
	}
	return hasLetter
}

// isLocationLine reports whether the line is location noise.
func isLocationLine(line string) bool {
	for _, word := range strings.Fields(strings.ToUpper(line)) {
		for _, kw := range locationKeywords {
			if word == kw {
				return true
			}
		}
	}
	return false
}

// isAmountOnlyLine reports whether the line consists solely of decimal
// amounts and whitespace.
func isAmountOnlyLine(line string) bool {
	if !lex.AmountToken.MatchString(line) {
		return false
	}
	return strings.TrimSpace(lex.AmountToken.ReplaceAllString(line, "")) == ""
}

// StructuralCue infers record boundaries from line shape when no style
// metadata exists: an all-caps line or a line starting with a known
// transaction-type keyword opens a record; an amount-only line continues the
// amounts; a location line is auxiliary info; anything else extends the
// description.
type StructuralCue struct{}

var structuralCueInstance = &StructuralCue{}

// NewStructuralCue returns the shared instance; the grammar is stateless.
func NewStructuralCue() *StructuralCue { return structuralCueInstance }

// Name returns the grammar identifier.
func (g *StructuralCue) Name() string { return "structural-cue" }

// Extract walks the text line by line. Records without a parseable date are
// dropped; scanning continues.
func (g *StructuralCue) Extract(text string, year int) []grammar.Token {
	var tokens []grammar.Token
	var cur *pendingRecord
	position := 0

	flush := func() {
		if cur == nil {
			return
		}
		defer func() { cur = nil }()
		if cur.dateText == "" {
			return
		}
		if _, err := lex.ParseDayMonth(cur.dateText, year); err != nil {
			return
		}
		merchant := strings.TrimSpace(strings.Join(cur.desc, " "))
		if merchant == "" {
			merchant = cur.typeText
		}
		tok, err := grammar.NewToken(cur.position, cur.dateText, merchant, cur.amounts)
		if err != nil {
			return
		}
		tok.SetTypeText(cur.typeText)
		tok.SetInfoText(strings.TrimSpace(strings.Join(cur.info, " ")))
		tok.SetAllCaps(cur.allCaps)
		tokens = append(tokens, *tok)
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		lineStart := position
		position += len(rawLine) + 1
		if line == "" {
			continue
		}

		opens := isAllCapsLine(line) || hasTypeKeywordPrefix(line)
		if opens && !isAmountOnlyLine(line) && !isLocationLine(line) {
			flush()
			cur = &pendingRecord{position: lineStart, allCaps: isAllCapsLine(line)}
			consumeRecordLine(cur, line, true)
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case isAmountOnlyLine(line):
			cur.amounts = append(cur.amounts, lex.AmountToken.FindAllString(line, -1)...)
		case isLocationLine(line):
			cur.info = append(cur.info, line)
		default:
			consumeRecordLine(cur, line, false)
		}
	}
	flush()

	return tokens
}

// consumeRecordLine folds one content line into the record, peeling off a
// leading date token and any trailing amount runs.
func consumeRecordLine(cur *pendingRecord, line string, opening bool) {
	if dayMonthPattern.MatchString(line) && cur.dateText == "" {
		cur.dateText = line[:6]
		line = strings.TrimSpace(line[6:])
	}
	if amounts := lex.AmountToken.FindAllString(line, -1); len(amounts) > 0 {
		cur.amounts = append(cur.amounts, amounts...)
		line = strings.TrimSpace(lex.AmountToken.ReplaceAllString(line, " "))
	}
	line = collapseWhitespace(line)
	if line == "" {
		return
	}
	if opening {
		cur.typeText = firstWord(line)
	}
	cur.desc = append(cur.desc, line)
}
