package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParsePeriod converts a period string like "2y", "6mo", "30d", "1wk"
// into a duration measured backwards from now. Months and years use
// calendar-approximate lengths (30 and 365 days).
func ParsePeriod(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty period")
	}

	var numStr, unit string
	for i, r := range s {
		if r < '0' || r > '9' {
			numStr, unit = s[:i], s[i:]
			break
		}
	}
	if numStr == "" || unit == "" {
		return 0, fmt.Errorf("invalid period %q", s)
	}

	n, err := strconv.Atoi(numStr)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid period %q", s)
	}

	day := 24 * time.Hour
	switch unit {
	case "d":
		return time.Duration(n) * day, nil
	case "wk", "w":
		return time.Duration(n) * 7 * day, nil
	case "mo":
		return time.Duration(n) * 30 * day, nil
	case "y":
		return time.Duration(n) * 365 * day, nil
	default:
		return 0, fmt.Errorf("unknown period unit %q", unit)
	}
}

// PeriodRange returns the [from, to] range for a period string ending now.
func PeriodRange(s string, now time.Time) (time.Time, time.Time, error) {
	d, err := ParsePeriod(s)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return now.Add(-d), now, nil
}
