package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount_Numeric(t *testing.T) {
	amount, ok := ParseAmount(float64(1234.56))
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromFloat(1234.56)))

	amount, ok = ParseAmount(100)
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(100)))
}

func TestParseAmount_CommaDecimal(t *testing.T) {
	// Rightmost separator is the comma, so dots are thousands.
	amount, ok := ParseAmount("1.234,56")
	require.True(t, ok)
	assert.Equal(t, "1234.56", amount.String())
}

func TestParseAmount_DotDecimal(t *testing.T) {
	// Rightmost separator is the dot, so commas are thousands.
	amount, ok := ParseAmount("1,234.56")
	require.True(t, ok)
	assert.Equal(t, "1234.56", amount.String())
}

func TestParseAmount_SingleComma(t *testing.T) {
	amount, ok := ParseAmount("150,75")
	require.True(t, ok)
	assert.Equal(t, "150.75", amount.String())
}

func TestParseAmount_Negation(t *testing.T) {
	amount, ok := ParseAmount("(100,00)")
	require.True(t, ok)
	assert.Equal(t, "-100", amount.String())

	amount, ok = ParseAmount("-250.50")
	require.True(t, ok)
	assert.Equal(t, "-250.5", amount.String())

	// Even count of minus signs cancels out.
	amount, ok = ParseAmount("--50")
	require.True(t, ok)
	assert.Equal(t, "50", amount.String())

	// Parens and a minus sign each signal negative; together they do
	// not cancel.
	amount, ok = ParseAmount("(-5)")
	require.True(t, ok)
	assert.Equal(t, "-5", amount.String())

	// Interior parens do not wrap the amount and do not negate.
	amount, ok = ParseAmount("1(2)3")
	require.True(t, ok)
	assert.Equal(t, "123", amount.String())
}

func TestParseAmount_RepeatedSeparatorWithoutDecimal(t *testing.T) {
	// A lone separator kind repeated is ambiguous; the row is dropped.
	for _, input := range []string{"1.234.567", "1,234,567"} {
		_, ok := ParseAmount(input)
		assert.False(t, ok, "input %q should not parse", input)
	}

	// With both kinds present the rightmost decides, however often the
	// thousands separator repeats.
	amount, ok := ParseAmount("1.234.567,89")
	require.True(t, ok)
	assert.Equal(t, "1234567.89", amount.String())
}

func TestParseAmount_CurrencySymbols(t *testing.T) {
	amount, ok := ParseAmount("$ 1.500,00")
	require.True(t, ok)
	assert.Equal(t, "1500", amount.String())
}

func TestParseAmount_Unparseable(t *testing.T) {
	for _, input := range []any{nil, "", "   ", "N/A", "---", true} {
		_, ok := ParseAmount(input)
		assert.False(t, ok, "input %v should not parse", input)
	}
}

func TestParseDate_Serial(t *testing.T) {
	// 45306 days after 1899-12-30 is 2024-01-15.
	date, ok := ParseDate(float64(45306))
	require.True(t, ok)
	assert.Equal(t, 2024, date.Year())
	assert.Equal(t, time.January, date.Month())
	assert.Equal(t, 15, date.Day())
}

func TestParseDate_SlashAndDash(t *testing.T) {
	date, ok := ParseDate("15/01/2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), date)

	date, ok = ParseDate("15-01-2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), date)
}

func TestParseDate_TwoDigitYear(t *testing.T) {
	date, ok := ParseDate("5/3/24")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), date)
}

func TestParseDate_GeneralLayout(t *testing.T) {
	date, ok := ParseDate("2024-01-15")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), date)
}

func TestParseDate_Native(t *testing.T) {
	now := time.Now()
	date, ok := ParseDate(now)
	require.True(t, ok)
	assert.Equal(t, now, date)
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []any{nil, "", "not a date", "31/02/2024", "15/13/2024"} {
		_, ok := ParseDate(input)
		assert.False(t, ok, "input %v should not parse", input)
	}
}

func TestAmountKey_Rounding(t *testing.T) {
	assert.Equal(t, int64(10000), AmountKey(decimal.NewFromFloat(100.00), 2))
	assert.Equal(t, int64(10000), AmountKey(decimal.NewFromFloat(99.995), 2))
	assert.Equal(t, int64(9999), AmountKey(decimal.NewFromFloat(99.994), 2))
	assert.Equal(t, int64(-1050), AmountKey(decimal.NewFromFloat(-10.50), 2))
}

func TestAmountKey_EqualAmountsShareKey(t *testing.T) {
	a, ok := ParseAmount("1.234,56")
	require.True(t, ok)
	b, ok := ParseAmount("1234.56")
	require.True(t, ok)
	assert.Equal(t, AmountKey(a, 2), AmountKey(b, 2))
}

func TestExtractAmount_SingleMode(t *testing.T) {
	row := map[string]any{"Importe": "100,50"}

	amount, ok := ExtractAmount(row, ModeSingle, "Importe", "", "")
	require.True(t, ok)
	assert.Equal(t, "100.5", amount.String())

	// Unset amount column drops the row.
	_, ok = ExtractAmount(row, ModeSingle, "", "", "")
	assert.False(t, ok)
}

func TestExtractAmount_DebeHaber(t *testing.T) {
	// Non-zero debit yields a positive amount.
	amount, ok := ExtractAmount(map[string]any{"Debe": "200", "Haber": ""}, ModeDebeHaber, "", "Debe", "Haber")
	require.True(t, ok)
	assert.Equal(t, "200", amount.String())

	// Non-zero credit yields a negative amount.
	amount, ok = ExtractAmount(map[string]any{"Debe": "", "Haber": "300"}, ModeDebeHaber, "", "Debe", "Haber")
	require.True(t, ok)
	assert.Equal(t, "-300", amount.String())

	// Both columns at exactly zero is a meaningful zero.
	amount, ok = ExtractAmount(map[string]any{"Debe": "0", "Haber": "0"}, ModeDebeHaber, "", "Debe", "Haber")
	require.True(t, ok)
	assert.True(t, amount.IsZero())

	// Neither column parses: row dropped.
	_, ok = ExtractAmount(map[string]any{"Debe": "", "Haber": ""}, ModeDebeHaber, "", "Debe", "Haber")
	assert.False(t, ok)
}

func TestConcept_Normalization(t *testing.T) {
	assert.Equal(t, "impuesto al debito", Concept("  Impuesto   al  DEBITO "))
	assert.Equal(t, "", Concept("   "))
}

func TestText(t *testing.T) {
	assert.Equal(t, "Comision", Text("  Comision  "))
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "", Text(42))
}
