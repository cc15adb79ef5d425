package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPeriod(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"zero", 0, "PT0S"},
		{"seconds", 10 * time.Second, "PT10S"},
		{"micros", 31 * time.Microsecond, "PT0.000031S"},
		{"nanos", time.Nanosecond, "PT0.000000001S"},
		{"hours minutes", time.Hour + 2*time.Minute, "PT1H2M"},
		{"mixed", time.Hour + 2*time.Minute + 3500*time.Millisecond, "PT1H2M3.5S"},
		{"days stay hours", 48 * time.Hour, "PT48H"},
		{"negative fraction", -500 * time.Millisecond, "PT-0.5S"},
		{"negative mixed", -(time.Hour + 500*time.Millisecond), "PT-1H-0.5S"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatPeriod(tt.in))
		})
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT0S", 0},
		{"PT10S", 10 * time.Second},
		{"PT0.000031S", 31 * time.Microsecond},
		{"PT1H2M3.5S", time.Hour + 2*time.Minute + 3500*time.Millisecond},
		{"P1D", 24 * time.Hour},
		{"P1DT1H", 25 * time.Hour},
		{"pt2m", 2 * time.Minute},
		{"PT-0.5S", -500 * time.Millisecond},
		{"-PT10S", -10 * time.Second},
		{"PT1,25S", 1250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePeriod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePeriodRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "P", "PT", "10S", "PT1.5H", "PTS", "P1DT", "PT99999999999999999999S"} {
		t.Run(in, func(t *testing.T) {
			_, err := parsePeriod(in)
			assert.Error(t, err)
		})
	}
}

func TestPeriodRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{
		0,
		time.Nanosecond,
		999 * time.Millisecond,
		time.Hour + time.Nanosecond,
		-3 * time.Minute,
		-(time.Hour + 500*time.Millisecond),
	} {
		got, err := parsePeriod(formatPeriod(d))
		require.NoError(t, err)
		assert.Equal(t, d, got, "round trip of %v", d)
	}
}

func TestFormatInstantKeepsNanoseconds(t *testing.T) {
	ts := time.Date(2025, 8, 28, 20, 21, 15, 0, time.UTC)
	assert.Equal(t, "2025-08-28T20:21:15.000000000Z", formatInstant(ts))

	ts = ts.Add(123 * time.Nanosecond)
	assert.Equal(t, "2025-08-28T20:21:15.000000123Z", formatInstant(ts))

	local := time.Date(2025, 8, 28, 22, 21, 15, 0, time.FixedZone("CEST", 2*60*60))
	assert.Equal(t, "2025-08-28T20:21:15.000000000Z", formatInstant(local))

	parsed, err := parseInstant("2025-08-28T22:21:15.5+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 28, 20, 21, 15, 500_000_000, time.UTC), parsed)
}
