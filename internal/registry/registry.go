// Package registry holds the ranked grammar chain. Grammars are tried in a
// fixed priority order and the first one yielding at least one token wins;
// results are never merged across grammars, so a broken vendor format cannot
// corrupt extraction of another.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerhound/stmtledger/internal/grammar"
	"github.com/ledgerhound/stmtledger/internal/grammars"
)

// ErrNoGrammarMatched signals that every grammar produced zero tokens. The
// caller surfaces this as an empty result with a diagnostic, not a fatal
// fault: the usual cause is a scanned or otherwise non-text source.
var ErrNoGrammarMatched = errors.New("no grammar matched")

// Chain is the ordered set of registered grammars.
type Chain struct {
	grammars []grammar.Grammar
}

// New creates a chain with the built-in grammars in priority order.
func New() *Chain {
	return &Chain{
		grammars: []grammar.Grammar{
			grammars.NewColumn(),
			grammars.NewThreeNumber(),
			grammars.NewLayoutCue(),
			grammars.NewStructuralCue(),
			grammars.NewMinimalLine(),
		},
	}
}

// Register appends a custom grammar at the lowest priority.
func (c *Chain) Register(g grammar.Grammar) {
	c.grammars = append(c.grammars, g)
}

// ListGrammars returns the registered grammar names in priority order.
func (c *Chain) ListGrammars() []string {
	names := make([]string, len(c.grammars))
	for i, g := range c.grammars {
		names[i] = g.Name()
	}
	return names
}

// Result is the outcome of a successful extraction run.
type Result struct {
	Tokens    []grammar.Token
	Grammar   string   // name of the winning grammar
	Attempted []string // grammars tried before the winner, in order
}

// Run tries each grammar in priority order against the document and returns
// the first non-empty token sequence. Layout-aware grammars receive the
// styled spans when available and are skipped when they are not.
func (c *Chain) Run(text string, spans []grammar.Span, year int) (*Result, error) {
	var attempted []string

	for _, g := range c.grammars {
		var tokens []grammar.Token
		if lg, ok := g.(grammar.LayoutGrammar); ok && len(spans) > 0 {
			tokens = lg.ExtractSpans(spans, year)
		} else {
			tokens = g.Extract(text, year)
		}
		if len(tokens) > 0 {
			return &Result{
				Tokens:    tokens,
				Grammar:   g.Name(),
				Attempted: attempted,
			}, nil
		}
		attempted = append(attempted, g.Name())
	}

	if strings.TrimSpace(text) == "" && len(spans) == 0 {
		return nil, fmt.Errorf("%w: source document is empty (likely a scanned or image-only statement)", ErrNoGrammarMatched)
	}
	return nil, fmt.Errorf("%w: tried %s", ErrNoGrammarMatched, strings.Join(attempted, ", "))
}
