// Package normalize turns raw spreadsheet cell values into typed
// amounts, dates and comparable text.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountMode selects how the amount of a row is derived.
type AmountMode string

const (
	// ModeSingle reads one signed amount column.
	ModeSingle AmountMode = "single"
	// ModeDebeHaber reads separate debit and credit columns.
	ModeDebeHaber AmountMode = "debe-haber"
)

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var (
	nonAmountChars = regexp.MustCompile(`[^0-9,.]`)
	dmyPattern     = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// generalLayouts are tried, in order, after the day-first patterns.
var generalLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseAmount converts a cell value to a decimal amount. The second
// return is false when the value carries no usable number, in which
// case the caller drops the row.
func ParseAmount(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		return parseAmountText(v)
	default:
		return decimal.Zero, false
	}
}

// parseAmountText handles formatted text amounts: currency symbols,
// thousands separators in either locale convention, parenthesized and
// minus-signed negatives.
func parseAmountText(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if strings.Count(s, "-")%2 == 1 {
		negative = true
	}

	digits := nonAmountChars.ReplaceAllString(s, "")
	if digits == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(digits, ",")
	lastDot := strings.LastIndex(digits, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// The rightmost separator is the decimal one.
		if lastComma > lastDot {
			digits = strings.ReplaceAll(digits, ".", "")
			digits = strings.Replace(digits, ",", ".", 1)
		} else {
			digits = strings.ReplaceAll(digits, ",", "")
		}
	case lastComma >= 0:
		// A repeated separator with no decimal counterpart is not a
		// number; the row is dropped rather than guessed at.
		if strings.Count(digits, ",") > 1 {
			return decimal.Zero, false
		}
		digits = strings.Replace(digits, ",", ".", 1)
	case lastDot >= 0:
		if strings.Count(digits, ".") > 1 {
			return decimal.Zero, false
		}
	}

	amount, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, true
}

// ParseDate converts a cell value to a date. Numbers are read as
// spreadsheet serials, strings as day-first or ISO layouts.
func ParseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case float64:
		return fromSerial(v)
	case float32:
		return fromSerial(float64(v))
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case string:
		return parseDateText(v)
	default:
		return time.Time{}, false
	}
}

func fromSerial(serial float64) (time.Time, bool) {
	if serial <= 0 {
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, int(serial)), true
}

func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		day := atoi(m[1])
		month := atoi(m[2])
		year := atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes out-of-range days; reject the rollover.
		if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
			return time.Time{}, false
		}
		return date, true
	}

	for _, layout := range generalLayouts {
		if date, err := time.Parse(layout, s); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// AmountKey collapses an amount to an integer of minor units so equal
// monetary values compare equal regardless of representation.
func AmountKey(amount decimal.Decimal, decimals int32) int64 {
	return amount.Round(decimals).Shift(decimals).IntPart()
}

// ExtractAmount derives a row's signed amount per the mapping mode.
//
// In debe-haber mode a non-zero debit wins as a positive amount, then a
// non-zero credit as a negative one. When both columns parse to zero
// the row is a meaningful zero; when neither parses the row is dropped.
func ExtractAmount(row map[string]any, mode AmountMode, amountCol, debeCol, haberCol string) (decimal.Decimal, bool) {
	if mode == ModeDebeHaber {
		debe, debeOK := ParseAmount(row[debeCol])
		haber, haberOK := ParseAmount(row[haberCol])
		switch {
		case debeOK && !debe.IsZero():
			return debe.Abs(), true
		case haberOK && !haber.IsZero():
			return haber.Abs().Neg(), true
		case debeOK && haberOK:
			return decimal.Zero, true
		default:
			return decimal.Zero, false
		}
	}
	if amountCol == "" {
		return decimal.Zero, false
	}
	return ParseAmount(row[amountCol])
}

// Text reads a cell as trimmed text; non-string cells read as empty.
func Text(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Concept canonicalizes free text for comparison: lower-cased, trimmed,
// inner whitespace collapsed.
func Concept(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}
