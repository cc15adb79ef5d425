package trace

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const instantLayout = "2006-01-02T15:04:05.000000000Z"

var periodPattern = regexp.MustCompile(
	`(?i)^([-+]?)P(?:([-+]?[0-9]+)D)?(T(?:([-+]?[0-9]+)H)?(?:([-+]?[0-9]+)M)?(?:([-+]?[0-9]+)(?:[.,]([0-9]{0,9}))?S)?)?$`,
)

// formatInstant renders t in UTC with all nine fraction digits.
func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// formatPeriod renders d as an ISO-8601 duration, e.g. PT10S, PT1H2M0.5S.
// Negative components each carry their own sign: PT-1H-0.5S.
func formatPeriod(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}

	sign := ""
	abs := d
	if d < 0 {
		sign = "-"
		abs = -d
		if abs < 0 { // math.MinInt64
			abs = math.MaxInt64
		}
	}

	total := int64(abs / time.Second)
	frac := int64(abs % time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	var b strings.Builder
	b.WriteString("PT")
	if hours != 0 {
		fmt.Fprintf(&b, "%s%dH", sign, hours)
	}
	if minutes != 0 {
		fmt.Fprintf(&b, "%s%dM", sign, minutes)
	}
	if secs == 0 && frac == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "%s%d", sign, secs)
	if frac > 0 {
		digits := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
		b.WriteByte('.')
		b.WriteString(digits)
	}
	b.WriteByte('S')
	return b.String()
}

// parsePeriod reads the day-time subset of ISO-8601 durations: PnDTnHnMn.nS.
func parsePeriod(s string) (time.Duration, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil || (m[2] == "" && m[3] == "") || strings.EqualFold(m[3], "T") {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var total int64
	add := func(field string, unit time.Duration) error {
		if field == "" {
			return nil
		}
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if n > int64(math.MaxInt64/unit) || n < int64(math.MinInt64/unit) {
			return fmt.Errorf("duration %q out of range", s)
		}
		return addChecked(&total, n*int64(unit), s)
	}

	if err := add(m[2], 24*time.Hour); err != nil {
		return 0, err
	}
	if err := add(m[4], time.Hour); err != nil {
		return 0, err
	}
	if err := add(m[5], time.Minute); err != nil {
		return 0, err
	}
	if err := add(m[6], time.Second); err != nil {
		return 0, err
	}

	if m[7] != "" {
		nanos, err := strconv.ParseInt((m[7] + "000000000")[:9], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if strings.HasPrefix(m[6], "-") {
			nanos = -nanos
		}
		if err := addChecked(&total, nanos, s); err != nil {
			return 0, err
		}
	}

	if m[1] == "-" {
		total = -total
	}
	return time.Duration(total), nil
}

func addChecked(total *int64, v int64, s string) error {
	if (v > 0 && *total > math.MaxInt64-v) || (v < 0 && *total < math.MinInt64-v) {
		return fmt.Errorf("duration %q out of range", s)
	}
	*total += v
	return nil
}
