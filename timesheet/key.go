package timesheet

import (
	"strings"
	"time"
)

// =============================================================================
// COMPOSITE KEYS AND DATES
// =============================================================================

// DayKey identifies one employee-day across all data sources. Name is
// a normalized employee name (NormalizeName) and Date is a normalized
// CBO-format date (NormalizeDate). Using a comparable struct instead
// of a formatted string eliminates the separator-mismatch bugs that
// plague joins between YYYY-MM-DD self-reports and YYYY/MM/DD exports.
type DayKey struct {
	Name string
	Date string
}

// NormalizeDate canonicalizes a calendar date to "YYYY/MM/DD". It
// accepts the CBO export form ("2025/1/5", "2025/01/05") and the
// self-report form ("2025-01-05"). Returns false for anything else.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "-", "/"))
	t, err := time.Parse("2006/1/2", s)
	if err != nil {
		return "", false
	}
	return t.Format("2006/01/02"), true
}

// MonthOf returns the "YYYY-MM" month key for a normalized date.
func MonthOf(date string) string {
	t, err := time.Parse("2006/01/02", date)
	if err != nil {
		return ""
	}
	return t.Format("2006-01")
}

// NormalizeMonth canonicalizes a year-month to "YYYY-MM", accepting
// "2025/4", "2025-04" and the like.
func NormalizeMonth(s string) (string, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "/", "-"))
	t, err := time.Parse("2006-1", s)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01"), true
}

// DaysInMonth lists every date of a "YYYY-MM" month in normalized
// "YYYY/MM/DD" form, in calendar order.
func DaysInMonth(month string) []string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return nil
	}
	var days []string
	for d := t; d.Month() == t.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format("2006/01/02"))
	}
	return days
}
