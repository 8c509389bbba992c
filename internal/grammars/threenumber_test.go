package grammars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreeNumber_Extract(t *testing.T) {
	text := `01 Mar  BALANCE B/F  1,000.00
02 Mar  GIRO PAYMENT AcmeCorp  250.00  750.00
05 Mar  INWARD CREDIT SALARY  4,100.00  4,850.00
06 Mar  ADJUSTMENT  50.00  1,200.00  6,000.00
`
	tokens := NewThreeNumber().Extract(text, 2024)
	require.Len(t, tokens, 4)

	// Single number: it is the balance, no transaction amount.
	assert.Equal(t, "BALANCE B/F", tokens[0].MerchantText())
	assert.Empty(t, tokens[0].AmountCandidates())
	assert.Equal(t, "1,000.00", tokens[0].BalanceText())
	assert.True(t, tokens[0].AllCaps())

	// Two numbers: one amount plus the balance.
	assert.Equal(t, "GIRO PAYMENT AcmeCorp", tokens[1].MerchantText())
	assert.Equal(t, []string{"250.00"}, tokens[1].AmountCandidates())
	assert.Equal(t, "750.00", tokens[1].BalanceText())
	assert.False(t, tokens[1].AllCaps())

	assert.Equal(t, []string{"4,100.00"}, tokens[2].AmountCandidates())
	assert.Equal(t, "4,850.00", tokens[2].BalanceText())

	// Three numbers: two amounts in statement order plus the balance.
	assert.Equal(t, []string{"50.00", "1,200.00"}, tokens[3].AmountCandidates())
	assert.Equal(t, "6,000.00", tokens[3].BalanceText())
}

func TestThreeNumber_DescriptionStopsAtFirstNumber(t *testing.T) {
	text := "02 Mar  POS 450.00 STORE  750.00\n"
	tokens := NewThreeNumber().Extract(text, 2024)
	require.Len(t, tokens, 1)

	// The lazy description ends at the first numeric run; text after a gap
	// in the numeric columns is not folded back into the row.
	assert.Equal(t, "POS", tokens[0].MerchantText())
	assert.Empty(t, tokens[0].AmountCandidates())
	assert.Equal(t, "450.00", tokens[0].BalanceText())
}

func TestThreeNumber_NoMatch(t *testing.T) {
	// Date without an amount on the same row is not this dialect.
	assert.Empty(t, NewThreeNumber().Extract("01 Mar GROCER\n12.10\n", 2024))
	assert.Empty(t, NewThreeNumber().Extract("", 2024))
}
