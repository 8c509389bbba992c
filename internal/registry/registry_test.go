package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerhound/stmtledger/internal/grammar"
)

func TestNew_PriorityOrder(t *testing.T) {
	want := []string{"column", "three-number", "layout-cue", "structural-cue", "minimal-line"}
	assert.Equal(t, want, New().ListGrammars())
}

func TestRun_FirstNonEmptyWins(t *testing.T) {
	// One-amount card row: the column grammar claims it before any
	// lower-ranked grammar sees it.
	text := "17 JAN  FAIRPRICE FINEST  SINGAPORE SG  12.10\n"

	result, err := New().Run(text, nil, 2024)
	require.NoError(t, err)
	assert.Equal(t, "column", result.Grammar)
	assert.Empty(t, result.Attempted)
	require.Len(t, result.Tokens, 1)
}

func TestRun_FallsThroughToLastResort(t *testing.T) {
	// Dates and amounts embedded mid-line defeat every stricter dialect.
	text := `GIRO salary payment
received 17 JAN by request
total due 45.00 thanks
`
	result, err := New().Run(text, nil, 2024)
	require.NoError(t, err)
	assert.Equal(t, "minimal-line", result.Grammar)
	assert.Equal(t, []string{"column", "three-number", "layout-cue", "structural-cue"}, result.Attempted)
	require.Len(t, result.Tokens, 1)
}

func TestRun_SpansReachLayoutGrammar(t *testing.T) {
	spans := []grammar.Span{
		{Text: "POS PURCHASE", Bold: true},
		{Text: "17 JAN FAIRPRICE FINEST"},
		{Text: "12.10"},
	}

	result, err := New().Run("", spans, 2024)
	require.NoError(t, err)
	assert.Equal(t, "layout-cue", result.Grammar)
	require.Len(t, result.Tokens, 1)
}

func TestRun_NoMatch(t *testing.T) {
	_, err := New().Run("completely unstructured prose with no rows", nil, 2024)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoGrammarMatched))
	assert.Contains(t, err.Error(), "tried")
}

func TestRun_EmptySource(t *testing.T) {
	_, err := New().Run("", nil, 2024)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoGrammarMatched))
	assert.Contains(t, err.Error(), "empty")
}

type stubGrammar struct{ name string }

func (g *stubGrammar) Name() string { return g.name }

func (g *stubGrammar) Extract(text string, year int) []grammar.Token {
	tok, err := grammar.NewToken(0, "01 JAN", "stub", nil)
	if err != nil {
		return nil
	}
	return []grammar.Token{*tok}
}

func TestRegister_AppendsAtLowestPriority(t *testing.T) {
	c := New()
	c.Register(&stubGrammar{name: "custom"})

	names := c.ListGrammars()
	assert.Equal(t, "custom", names[len(names)-1])

	// A higher-priority match keeps winning.
	result, err := c.Run("17 JAN  FAIRPRICE FINEST  SINGAPORE SG  12.10\n", nil, 2024)
	require.NoError(t, err)
	assert.Equal(t, "column", result.Grammar)

	// The custom grammar picks up what nothing else matches.
	result, err = c.Run("unstructured prose", nil, 2024)
	require.NoError(t, err)
	assert.Equal(t, "custom", result.Grammar)
}
