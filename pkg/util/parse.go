package util

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseValue parses an upstream numeric field. FRED marks missing
// observations with "."; those, blanks and non-finite values report false.
func ParseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseTime tries YYYY-MM-DD, RFC3339 and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// StartOfHistory returns the UTC midnight `years` calendar years before now.
func StartOfHistory(now time.Time, years int) time.Time {
	y, m, d := now.UTC().AddDate(-years, 0, 0).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
