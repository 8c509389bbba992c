// Package lex provides the lexical primitives shared by all statement
// grammars: amount and date tokenization, merchant normalization and
// statement-year resolution.
package lex

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrMalformedAmount signals a candidate that is not a statement amount.
	// Callers treat this as "not a match", never as a fatal failure.
	ErrMalformedAmount = errors.New("malformed amount")

	// ErrMalformedDate signals a candidate that is not a statement date.
	ErrMalformedDate = errors.New("malformed date")
)

// amountPattern matches statement amounts after comma removal: at least one
// integer digit and exactly two fraction digits.
var amountPattern = regexp.MustCompile(`^\d+\.\d{2}$`)

// AmountToken matches an amount candidate inside larger text, with optional
// thousands grouping. Shared by the grammars.
var AmountToken = regexp.MustCompile(`\d{1,3}(?:,\d{3})*\.\d{2}|\d+\.\d{2}`)

// ParseAmount converts statement amount text ("1,234.56") to a decimal.
// Thousands separators are stripped; exactly two fraction digits are
// required. Returns ErrMalformedAmount otherwise.
func ParseAmount(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if !amountPattern.MatchString(cleaned) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, text)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrMalformedAmount, text, err)
	}
	return d, nil
}

var monthCaser = cases.Title(language.English)

// ParseDayMonth resolves a day-month token ("17 JAN", "01 Mar") against the
// supplied statement year. Returns ErrMalformedDate when the token is not a
// calendar date.
func ParseDayMonth(text string, year int) (time.Time, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, text)
	}
	normalized := fmt.Sprintf("%s %s %04d", fields[0], monthCaser.String(strings.ToLower(fields[1])), year)
	t, err := time.Parse("02 Jan 2006", normalized)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedDate, text, err)
	}
	return t, nil
}

// DefaultNoisePhrases are boilerplate phrases stripped from merchant text.
// Statement rows suffix the merchant with a location line that carries no
// categorization signal.
var DefaultNoisePhrases = []string{
	"SINGAPORE SG",
	"SINGAPORE SGP",
	"SG SINGAPORE",
}

// Normalizer canonicalizes merchant text into the category lookup key.
// The zero value is not usable; construct with NewNormalizer.
type Normalizer struct {
	noise      []*regexp.Regexp
	keepDigits bool
}

// NewNormalizer builds a normalizer stripping the given noise phrases.
// Each phrase matches case-insensitively with arbitrary whitespace between
// its words. Pass keepDigits=true to retain digits in the key (card dialects
// embed outlet numbers that distinguish merchants).
func NewNormalizer(noisePhrases []string, keepDigits bool) *Normalizer {
	n := &Normalizer{keepDigits: keepDigits}
	for _, phrase := range noisePhrases {
		words := strings.Fields(phrase)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		n.noise = append(n.noise, regexp.MustCompile(`(?i)\b`+strings.Join(words, `\s+`)+`\b`))
	}
	return n
}

// defaultNormalizer backs the package-level NormalizeMerchant.
var defaultNormalizer = NewNormalizer(DefaultNoisePhrases, false)

// NormalizeMerchant canonicalizes a merchant description plus auxiliary info
// using the default noise set. Idempotent: normalizing an already normalized
// key returns it unchanged.
func NormalizeMerchant(desc, aux string) string {
	return defaultNormalizer.Normalize(desc, aux)
}

// Normalize concatenates description and auxiliary info, collapses
// whitespace and newlines, strips noise phrases and diacritics, keeps only
// letters (and digits when configured) and lowercases the result.
func (n *Normalizer) Normalize(desc, aux string) string {
	combined := strings.TrimSpace(desc + " " + aux)
	if combined == "" {
		return ""
	}
	combined = strings.ReplaceAll(combined, "\n", " ")

	for _, re := range n.noise {
		combined = re.ReplaceAllString(combined, " ")
	}

	// Fold accented characters to their base letters before filtering.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, combined); err == nil {
		combined = folded
	}

	var b strings.Builder
	lastSpace := true
	for _, r := range combined {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
			lastSpace = false
		case n.keepDigits && unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// ResolveYear picks the statement year: an explicit user-supplied year wins,
// else the first 4-digit run in the filename, else the current calendar
// year. Never fails.
func ResolveYear(filename string, explicit int) int {
	if explicit > 0 {
		return explicit
	}
	if m := yearPattern.FindString(filename); m != "" {
		var y int
		fmt.Sscanf(m, "%d", &y)
		return y
	}
	return time.Now().Year()
}
