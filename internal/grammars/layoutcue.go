package grammars

import (
	"regexp"
	"strings"

	"github.com/ledgerhound/stmtledger/internal/grammar"
	"github.com/ledgerhound/stmtledger/internal/lex"
)

// LayoutCue consumes style-tagged spans from documents that expose per-span
// metadata. A bold span is a transaction-type header opening a new record;
// plain spans continue the description or location; any token matching the
// amount pattern becomes a candidate amount. A record closes when the next
// bold span appears or the input ends.
type LayoutCue struct{}

var layoutCueInstance = &LayoutCue{}

// NewLayoutCue returns the shared instance; the grammar is stateless.
func NewLayoutCue() *LayoutCue { return layoutCueInstance }

// Name returns the grammar identifier.
func (g *LayoutCue) Name() string { return "layout-cue" }

var dayMonthPattern = regexp.MustCompile(`^\d{2} [A-Za-z]{3}`)

// Extract on flat text always yields nothing; this dialect needs spans.
func (g *LayoutCue) Extract(text string, year int) []grammar.Token {
	return nil
}

// pendingRecord accumulates span content until the record closes.
type pendingRecord struct {
	position int
	typeText string
	dateText string
	desc     []string
	info     []string
	amounts  []string
	allCaps  bool
}

// ExtractSpans walks styled spans and groups them into records at bold
// boundaries. Records that never produced a parseable date are dropped;
// scanning continues.
func (g *LayoutCue) ExtractSpans(spans []grammar.Span, year int) []grammar.Token {
	var tokens []grammar.Token
	var cur *pendingRecord

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
		tok.SetBold(true)
		tokens = append(tokens, *tok)
	}

	for _, span := range spans {
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}

		if span.Bold {
			flush()
			cur = &pendingRecord{position: span.Position, typeText: text}
			continue
		}
		if cur == nil {
			// Plain content before the first header is page furniture.
			continue
		}

		switch {
		case dayMonthPattern.MatchString(text):
			if cur.dateText == "" {
				cur.dateText = text[:6]
			}
			if rest := strings.TrimSpace(text[6:]); rest != "" {
				cur.desc = append(cur.desc, rest)
			}
		case lex.AmountToken.MatchString(text) && strings.TrimSpace(lex.AmountToken.ReplaceAllString(text, "")) == "":
			// The span is purely numeric: every run is an amount candidate.
			cur.amounts = append(cur.amounts, lex.AmountToken.FindAllString(text, -1)...)
		case isLocationLine(text):
			cur.info = append(cur.info, text)
		default:
			cur.desc = append(cur.desc, text)
		}
	}
	flush()

	return tokens
}
