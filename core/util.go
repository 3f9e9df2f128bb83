package core

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the ISO date format used by date-only fields (attendance, fees).
const DateLayout = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ContainsFold reports whether substr is within any of vals, case-insensitively.
func ContainsFold(substr string, vals ...string) bool {
	substr = strings.ToLower(substr)
	for _, v := range vals {
		if strings.Contains(strings.ToLower(v), substr) {
			return true
		}
	}
	return false
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Round1 rounds f to one decimal place.
func Round1(f float64) float64 {
	return math.Round(f*10) / 10
}
