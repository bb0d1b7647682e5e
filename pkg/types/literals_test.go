package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloatLiteral(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"0", "0"},
		{"42", "42"},
		{"3.14", "3.14"},
		{"0.5", "0.5"},
		{".5", "0.5"},
		{"2e3", "2000"},
		{"1.5E-2", "0.015"},
		{"0b101", "5"},
		{"0o17", "15"},
		{"0xdeadbeef", "3735928559"},
		{"-0x10", "-16"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, err := ParseFloatLiteral(tc.text)
			require.NoError(t, err)
			want := mustFloat(t, tc.want)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	inf, err := ParseFloatLiteral("inf")
	require.NoError(t, err)
	assert.False(t, IsRealNumber(inf))
	nan, err := ParseFloatLiteral("nan")
	require.NoError(t, err)
	assert.False(t, nan.Equal(nan))

	invalid := []string{"", "01", "007", "0x", "0b2", "0o8", "1.2.3", "abc", "1_000"}
	for _, text := range invalid {
		_, err := ParseFloatLiteral(text)
		assert.Error(t, err, "expected failure for %q", text)
		var lse *LiteralSyntaxError
		require.ErrorAs(t, err, &lse)
		assert.Equal(t, KindFloat, lse.Kind)
	}
}

func TestParseDatetimeLiteral(t *testing.T) {
	utc := time.UTC

	d, err := ParseDatetimeLiteral("2024-06-01", utc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, utc), d.Time)

	d, err = ParseDatetimeLiteral("2024-06-01T13:45:30", utc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 13, 45, 30, 0, utc), d.Time)

	d, err = ParseDatetimeLiteral("2024-06-01T13:45:30.5-05:00", utc)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, time.Duration(d.Time.Nanosecond()))
	_, offset := d.Time.Zone()
	assert.Equal(t, -5*3600, offset)

	// A location applies only when the text carries no offset.
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	d, err = ParseDatetimeLiteral("2024-06-01T00:00", ny)
	require.NoError(t, err)
	assert.Equal(t, ny, d.Time.Location())

	for _, text := range []string{"", "2024", "2024-13-01", "not a date", "2024-06-01TT00"} {
		_, err := ParseDatetimeLiteral(text, utc)
		assert.Error(t, err, "expected failure for %q", text)
	}
}

func TestParseTimedeltaLiteral(t *testing.T) {
	d, err := ParseTimedeltaLiteral("P1W")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d.Duration)

	d, err = ParseTimedeltaLiteral("P1DT2H3M4S")
	require.NoError(t, err)
	assert.Equal(t, 26*time.Hour+3*time.Minute+4*time.Second, d.Duration)

	d, err = ParseTimedeltaLiteral("PT0.5S")
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d.Duration)

	for _, text := range []string{"P", "PT", "", "P1Y", "P2M", "1DT2H", "PX"} {
		_, err := ParseTimedeltaLiteral(text)
		assert.Error(t, err, "expected failure for %q", text)
	}
}
