/*
Package timesheet is the core computation engine: it parses the
heterogeneous Japanese timesheet CSV exports and allocates worked time
into regular-hours and overtime-hours buckets.

PURPOSE:
  The CBO export is the authoritative record of worked time-ranges, but
  it is messy: multi-line cells, mixed HH:MM and decimal time formats,
  day-crossing shifts, noise rows. This package turns that into clean
  per-employee-per-date figures:

    CSV text -> CBORow (work blocks) -> Allocator -> DayAllocation

  plus two overlay parsers (HR attendance export, monthly sales export)
  that augment the computed figures.

DESIGN PRINCIPLES:
  1. Malformed input never raises - it degrades to zero. The exports
     routinely contain incomplete rows and aborting the batch on one of
     them would make the whole upload unusable.
  2. Integer minute arithmetic inside the allocator; decimal.Decimal at
     the reporting boundary. No floating point in hour totals.
  3. Pure computation. No I/O anywhere in this package.

KEY CONCEPTS IN THIS FILE (clock.go):
  - ParseClock: "H:MM" / "HH:MM" / decimal string -> hours
  - Interval: a [start,end) minute range within a day (day-crossing
    shifts extend past minute 1440)
  - ParseRange: "HH:MM～HH:MM" -> Interval

SEE ALSO:
  - allocate.go: bucket allocation of work blocks
  - cbo.go, attendance.go, sales.go: CSV parsers
*/
package timesheet

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const minutesPerDay = 1440

var sixty = decimal.NewFromInt(60)

// =============================================================================
// CLOCK STRINGS
// =============================================================================

// ParseClock converts a time-amount string to fractional hours.
// Accepts "H:MM" / "HH:MM" clock format, or a plain decimal ("1.5")
// when no colon is present. Empty, "-", and malformed input all yield
// zero - the exports use "-" for absent values.
func ParseClock(s string) decimal.Decimal {
	return minutesToHours(ParseClockMinutes(s))
}

// ParseClockMinutes is ParseClock in whole minutes. Decimal input is
// truncated to the minute.
func ParseClockMinutes(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}

	if !strings.Contains(s, ":") {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return 0
		}
		return int(d.Mul(sixty).IntPart())
	}

	parts := strings.SplitN(s, ":", 2)
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 {
		return 0
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || m < 0 {
		return 0
	}
	return h*60 + m
}

// =============================================================================
// INTERVALS
// =============================================================================

// Interval is a worked time-range in minutes from midnight. End may
// exceed 1440 for day-crossing shifts ("20:00～03:00" ends at 1620).
// A valid interval has End > Start; the zero Interval means "no range".
type Interval struct {
	Start int
	End   int
}

// Minutes returns the interval length, never negative.
func (iv Interval) Minutes() int {
	if iv.End <= iv.Start {
		return 0
	}
	return iv.End - iv.Start
}

// Hours returns the interval length in fractional hours.
func (iv Interval) Hours() decimal.Decimal {
	return minutesToHours(iv.Minutes())
}

// IsZero reports whether the interval carries no range.
func (iv Interval) IsZero() bool {
	return iv.Minutes() == 0
}

// Overlap returns the number of minutes shared with [start, end).
func (iv Interval) Overlap(start, end int) int {
	lo := max(iv.Start, start)
	hi := min(iv.End, end)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Contains reports whether the interval fully contains [start, end).
func (iv Interval) Contains(start, end int) bool {
	return iv.Start <= start && iv.End >= end
}

// ParseRange parses a "HH:MM～HH:MM" work-time range. Both the
// full-width ～ and ASCII ~ separators occur in exports. If the end
// reads before the start the shift crossed midnight and a day is
// added. A missing separator or malformed side yields the zero
// Interval.
func ParseRange(s string) Interval {
	sep := "～"
	if !strings.Contains(s, sep) {
		sep = "~"
		if !strings.Contains(s, sep) {
			return Interval{}
		}
	}

	parts := strings.SplitN(s, sep, 2)
	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])
	if startStr == "" || endStr == "" {
		return Interval{}
	}

	start := ParseClockMinutes(startStr)
	end := ParseClockMinutes(endStr)
	if start == 0 && startStr != "0:00" && startStr != "00:00" {
		return Interval{}
	}
	if end == 0 && endStr != "0:00" && endStr != "00:00" {
		return Interval{}
	}

	if end < start {
		end += minutesPerDay
	}
	return Interval{Start: start, End: end}
}

func minutesToHours(m int) decimal.Decimal {
	if m <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(m)).Div(sixty)
}
