package types

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

var (
	floatLiteralPattern = regexp.MustCompile(
		`^[+-]?(0[bB][01]+|0[oO][0-7]+|0[xX][0-9a-fA-F]+|(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?|inf|nan)$`)
	leadingZeroPattern = regexp.MustCompile(`^[+-]?0\d`)
)

// ParseFloatLiteral parses a FLOAT literal in any of its source forms:
// decimal with an optional fraction and exponent, the binary/octal/hex radix
// forms (0b, 0o, 0x), and the special values inf and nan. Decimal integer
// parts may not carry redundant leading zeros. Malformed input fails with a
// FLOAT LiteralSyntaxError.
func ParseFloatLiteral(text string) (FloatValue, error) {
	if !floatLiteralPattern.MatchString(text) {
		return FloatValue{}, NewFloatSyntaxError("invalid floating point literal", text)
	}
	if leadingZeroPattern.MatchString(text) && !isRadixLiteral(text) {
		return FloatValue{}, NewFloatSyntaxError("invalid floating point literal (leading zeros)", text)
	}
	negative := strings.HasPrefix(text, "-")
	digits := strings.TrimLeft(text, "+-")
	if isRadixLiteral(text) {
		base := 2
		switch digits[1] {
		case 'o', 'O':
			base = 8
		case 'x', 'X':
			base = 16
		}
		i, err := strconv.ParseInt(digits[2:], base, 64)
		if err != nil {
			return FloatValue{}, NewFloatSyntaxError("invalid floating point literal", text)
		}
		if negative {
			i = -i
		}
		return NewFloatFromInt64(i), nil
	}
	return NewFloatFromString(text)
}

func isRadixLiteral(text string) bool {
	digits := strings.TrimLeft(text, "+-")
	if len(digits) < 3 || digits[0] != '0' {
		return false
	}
	switch digits[1] {
	case 'b', 'B', 'o', 'O', 'x', 'X':
		return true
	}
	return false
}

// datetimeLayouts are tried in order against ISO-8601 literal text. Layouts
// without an explicit offset are interpreted in the supplied location.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDatetimeLiteral parses an ISO-8601 DATETIME literal. A date without a
// time component means midnight; text without an explicit UTC offset is
// placed in loc. Malformed input fails with a DATETIME LiteralSyntaxError.
func ParseDatetimeLiteral(text string, loc *time.Location) (DatetimeValue, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range datetimeLayouts {
		t, err := time.ParseInLocation(layout, text, loc)
		if err == nil {
			return DatetimeValue{Time: t}, nil
		}
	}
	return DatetimeValue{}, NewDatetimeSyntaxError("invalid datetime literal", text)
}

// ParseTimedeltaLiteral parses an ISO-8601 duration literal into a
// TIMEDELTA. Weeks, days, hours, minutes and (fractional) seconds are
// supported; years and months are not, since they have no fixed length. A
// bare "P" (or "PT") with no components is invalid.
func ParseTimedeltaLiteral(text string) (TimedeltaValue, error) {
	d, err := duration.Parse(text)
	if err != nil {
		return TimedeltaValue{}, NewTimedeltaSyntaxError("invalid timedelta literal", text)
	}
	if d.Years != 0 || d.Months != 0 {
		return TimedeltaValue{}, NewTimedeltaSyntaxError(
			"invalid timedelta literal (years and months are not supported)", text)
	}
	if !strings.ContainsAny(text, "0123456789") {
		return TimedeltaValue{}, NewTimedeltaSyntaxError("invalid timedelta literal", text)
	}
	return TimedeltaValue{Duration: d.ToTimeDuration()}, nil
}
