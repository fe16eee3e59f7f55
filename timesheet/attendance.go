/*
attendance.go - HR attendance export parsing

PURPOSE:
  The HR attendance export tracks overtime independently of the CBO
  work-time ranges. Per employee-day it carries the authoritative
  overtime total, holiday-work hours, and the paid-leave /
  compensatory-leave free text from which half-days are detected.

  The resulting index overrides and augments allocator output:
  - holiday-work days short-circuit allocation entirely
  - half-days shift the regular window
  - the overtime total replaces the shift-computed one during
    reconciliation, so hours are never double-counted against the
    independently tracked HR figure

SEE ALSO:
  - allocate.go: DayContext consumption
  - verify: reconciliation against the overridden totals
*/
package timesheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AttendanceDay is the attendance export's view of one employee-day.
type AttendanceDay struct {
	OvertimeHours    decimal.Decimal `json:"overtime_hours"`
	HolidayWorkHours decimal.Decimal `json:"holiday_work_hours"`
	HalfDay          bool            `json:"half_day"`
}

// IsHolidayWork reports whether the export records holiday work for
// this day.
func (d AttendanceDay) IsHolidayWork() bool {
	return d.HolidayWorkHours.IsPositive()
}

// AttendanceIndex maps employee-days to their attendance record.
type AttendanceIndex map[DayKey]AttendanceDay

// Context converts an attendance record into the allocator's day
// context. The zero AttendanceDay (missing row) yields the zero
// context, leaving allocation untouched.
func (idx AttendanceIndex) Context(key DayKey) DayContext {
	d, ok := idx[key]
	if !ok {
		return DayContext{}
	}
	return DayContext{
		HalfDay:      d.HalfDay,
		HolidayWork:  d.IsHolidayWork(),
		HolidayHours: d.HolidayWorkHours,
	}
}

// Attendance export column headers.
const (
	colAttDate      = "日付"
	colAttOvertime  = "残業(h)"
	colAttHoliday   = "休出(h)"
	colAttPaidLeave = "有給休暇"
	colAttCompLeave = "振替休日"
)

const halfDayMarker = "半日"

// ParseAttendanceCSV parses the HR attendance export into a per
// employee-day index. Several rows for the same employee-day sum
// their hours; a half-day flag on any of them marks the day.
func ParseAttendanceCSV(data string) AttendanceIndex {
	records := readCSV(data)
	if len(records) < 2 {
		return AttendanceIndex{}
	}

	cols := headerIndex(records[0])
	index := make(AttendanceIndex)

	for _, rec := range records[1:] {
		name := NormalizeName(cols.get(rec, colReporter, colReporterAlt))
		if name == "" {
			continue
		}
		date, ok := NormalizeDate(cols.get(rec, colAttDate, colWorkDate))
		if !ok {
			continue
		}

		overtime := parseDecimalHours(cols.get(rec, colAttOvertime))
		holiday := parseDecimalHours(cols.get(rec, colAttHoliday))
		halfDay := strings.Contains(cols.get(rec, colAttPaidLeave), halfDayMarker) ||
			strings.Contains(cols.get(rec, colAttCompLeave), halfDayMarker)

		key := DayKey{Name: name, Date: date}
		day := index[key]
		day.OvertimeHours = day.OvertimeHours.Add(overtime)
		day.HolidayWorkHours = day.HolidayWorkHours.Add(holiday)
		day.HalfDay = day.HalfDay || halfDay
		index[key] = day
	}

	return index
}

// parseDecimalHours parses a decimal hour figure; "-", empty and
// malformed values yield zero, negatives are clamped.
func parseDecimalHours(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
