package verify

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kensei/kintai-engine/report"
	"github.com/kensei/kintai-engine/roster"
	"github.com/kensei/kintai-engine/timesheet"
)

// =============================================================================
// RECONCILIATION ENGINE
// =============================================================================

// Manual workday override values, keyed by YYYY/MM/DD date.
const (
	WorkdayOverride = "workday"
	HolidayOverride = "holiday"
)

// Input is one verification run's complete source data. The engine is
// a pure function of it.
type Input struct {
	Month      string // YYYY-MM
	Rows       []timesheet.CBORow
	Attendance timesheet.AttendanceIndex
	Sales      map[timesheet.SalesKey]decimal.Decimal
	Reports    []report.SelfReport
	Roster     *roster.Index
	Workdays   map[string]string // manual overrides, date -> workday|holiday
	Department roster.Department // optional filter, empty means all
}

// Engine reconciles CBO-derived hours against self-reports.
type Engine struct {
	// Tolerance is the allowed |cbo - system| gap before a pair is a
	// discrepancy.
	Tolerance decimal.Decimal
	// HolidayThreshold is the minimum number of active employees with
	// punch data on a date for it to count as a working day. Below it
	// the date is treated as a company holiday. A heuristic, not a
	// calendar lookup; manual overrides take precedence.
	HolidayThreshold int
	// Allocator turns a day's work blocks into hour buckets.
	Allocator *timesheet.Allocator
}

// NewEngine returns an engine with the production defaults: 0.5h
// tolerance, holiday threshold of 5, default allocation policy.
func NewEngine() *Engine {
	return &Engine{
		Tolerance:        decimal.NewFromFloat(0.5),
		HolidayThreshold: 5,
		Allocator:        timesheet.NewAllocator(timesheet.DefaultAllocatorConfig()),
	}
}

// dayData accumulates one employee-day's CBO side before allocation.
// overtime/early carry the export's own scalar figures, used when the
// day has no parseable work blocks.
type dayData struct {
	meta     roster.Meta
	blocks   []timesheet.WorkBlock
	overtime decimal.Decimal
	early    decimal.Decimal
}

// systemData accumulates one employee-day's self-reported side.
type systemData struct {
	meta    roster.Meta
	hours   decimal.Decimal
	details []SystemDetail
}

// Run computes the month's verification report. Rows belonging to
// inactive or unregistered employees are dropped before
// classification, as are rows outside the requested department when a
// filter is set.
func (e *Engine) Run(in Input) *Report {
	attendance := e.canonicalAttendance(in)

	// ----- CBO side: group rows per employee-day, then allocate -----

	cboDays := make(map[timesheet.DayKey]*dayData)
	for _, row := range in.Rows {
		meta, ok := e.admit(in, row.Employee)
		if !ok {
			continue
		}
		key := timesheet.DayKey{Name: meta.Name, Date: row.Date}
		day, ok := cboDays[key]
		if !ok {
			day = &dayData{meta: meta}
			cboDays[key] = day
		}
		day.blocks = append(day.blocks, row.Blocks...)
		day.overtime = day.overtime.Add(row.OvertimeHours)
		day.early = day.early.Add(row.EarlyHours)
	}

	cboHours := make(map[timesheet.DayKey]decimal.Decimal, len(cboDays))
	for key, day := range cboDays {
		cboHours[key] = e.dayTotal(key, day, attendance)
	}

	// ----- System side: sum self-reports per employee-day -----

	system := make(map[timesheet.DayKey]*systemData)
	admittedReports := 0
	for _, rep := range in.Reports {
		meta, ok := e.admit(in, rep.Employee)
		if !ok {
			continue
		}
		admittedReports++
		key := timesheet.DayKey{Name: meta.Name, Date: reportDate(rep.Date)}
		sys, ok := system[key]
		if !ok {
			sys = &systemData{meta: meta}
			system[key] = sys
		}
		sys.hours = sys.hours.Add(rep.Hours)
		sys.details = append(sys.details, SystemDetail{
			ID:       rep.ID,
			Category: rep.Category,
			Hours:    rep.Hours,
		})
	}

	// ----- Classification -----

	groups := e.seedGroups(in)
	summary := Summary{
		TotalCBORecords:    len(in.Rows),
		TotalSystemReports: admittedReports,
	}

	for key, hours := range cboHours {
		sys, reported := system[key]
		if reported {
			delete(system, key)
		}

		var rec Record
		switch {
		case !reported && hours.IsZero():
			// Punch data with no hours and no report: nothing to
			// reconcile. The day still counts as attended.
			continue
		case !reported:
			rec = newRecord(key.Date, StatusMissing, hours, decimal.Zero, nil)
			summary.MissingReports++
		case hours.Sub(sys.hours).Abs().GreaterThan(e.Tolerance):
			rec = newRecord(key.Date, StatusDiscrepancy, hours, sys.hours, sys.details)
			summary.TimeDiscrepancies++
		default:
			rec = newRecord(key.Date, StatusMatch, hours, sys.hours, sys.details)
			summary.Matches++
		}
		groups.add(cboDays[key].meta, rec)
	}

	// Leftover system entries have no CBO hours behind them.
	for key, sys := range system {
		rec := newRecord(key.Date, StatusExcess, decimal.Zero, sys.hours, sys.details)
		summary.ExcessReports++
		groups.add(sys.meta, rec)
	}

	// ----- Missing-day detection -----

	missing := e.detectMissingDays(in, cboDays, groups, &summary)

	return &Report{
		Month:      in.Month,
		VerifiedAt: time.Now().UTC(),
		Summary:    summary,
		ByEmployee: groups.sorted(),
		Missing:    missing,
	}
}

// admit resolves a raw employee name against the roster and applies
// the active and department filters.
func (e *Engine) admit(in Input, name string) (roster.Meta, bool) {
	meta, ok := in.Roster.Lookup(timesheet.NormalizeName(name))
	if !ok || !meta.Active {
		return roster.Meta{}, false
	}
	if in.Department != "" && meta.Department != in.Department {
		return roster.Meta{}, false
	}
	return meta, true
}

// canonicalAttendance re-keys the attendance index by roster display
// name, so CBO rows and attendance rows join even when the two
// exports spell the employee differently.
func (e *Engine) canonicalAttendance(in Input) timesheet.AttendanceIndex {
	out := make(timesheet.AttendanceIndex, len(in.Attendance))
	for key, day := range in.Attendance {
		meta, ok := e.admit(in, key.Name)
		if !ok {
			continue
		}
		out[timesheet.DayKey{Name: meta.Name, Date: key.Date}] = day
	}
	return out
}

// dayTotal computes one employee-day's CBO hours: the attendance
// export's overtime when a row exists (it is the authoritative HR
// figure, even when zero), otherwise the allocator's computed
// overtime, plus any holiday-work hours. Rows without parseable time
// ranges fall back to the export's own scalar overtime/early columns.
func (e *Engine) dayTotal(key timesheet.DayKey, day *dayData, attendance timesheet.AttendanceIndex) decimal.Decimal {
	alloc := e.Allocator.Allocate(day.blocks, attendance.Context(key))

	overtime := alloc.Overtime
	holiday := alloc.HolidayWork
	if len(day.blocks) == 0 {
		overtime = day.overtime.Add(day.early)
	}
	if att, ok := attendance[key]; ok {
		overtime = att.OvertimeHours
		holiday = att.HolidayWorkHours
	}
	return overtime.Add(holiday).Round(2)
}

// detectMissingDays flags working days where an active employee has
// no punch data at all. A date is a working day when the number of
// distinct employees with punch data reaches the holiday threshold,
// unless a manual override says otherwise.
func (e *Engine) detectMissingDays(in Input, cboDays map[timesheet.DayKey]*dayData, groups *groupSet, summary *Summary) MissingDays {
	attended := make(map[string]map[string]bool) // date -> set of names
	for key := range cboDays {
		names, ok := attended[key.Date]
		if !ok {
			names = make(map[string]bool)
			attended[key.Date] = names
		}
		names[key.Name] = true
	}

	active := in.Roster.Active()
	missing := MissingDays{ByDate: map[string][]string{}}

	for _, date := range timesheet.DaysInMonth(in.Month) {
		workday := len(attended[date]) >= e.HolidayThreshold
		switch in.Workdays[date] {
		case WorkdayOverride:
			workday = true
		case HolidayOverride:
			workday = false
		}
		if !workday {
			missing.Holidays = append(missing.Holidays, date)
			continue
		}

		for _, meta := range active {
			if in.Department != "" && meta.Department != in.Department {
				continue
			}
			if attended[date][meta.Name] {
				continue
			}
			rec := newRecord(date, StatusNoPunch, decimal.Zero, decimal.Zero, nil)
			groups.add(meta, rec)
			missing.ByDate[date] = append(missing.ByDate[date], meta.Name)
			summary.NoPunchDays++
		}
	}

	for _, names := range missing.ByDate {
		sort.Strings(names)
	}
	return missing
}

func newRecord(date string, status Status, cbo, system decimal.Decimal, details []SystemDetail) Record {
	return Record{
		Date:          date,
		Status:        status,
		Icon:          status.Icon(),
		CBOHours:      cbo,
		SystemHours:   system,
		Difference:    cbo.Sub(system).Round(2),
		SystemDetails: details,
	}
}

// reportDate converts the form's YYYY-MM-DD into the CBO export's
// YYYY/MM/DD.
func reportDate(date string) string {
	return strings.ReplaceAll(date, "-", "/")
}

// =============================================================================
// EMPLOYEE GROUPING
// =============================================================================

type groupSet struct {
	byName map[string]*EmployeeGroup
	metas  map[string]roster.Meta
	sales  map[string]decimal.Decimal
}

// seedGroups pre-seeds a group for every active employee in scope,
// so employees with nothing but no-punch days (or nothing at all)
// still appear in the report.
func (e *Engine) seedGroups(in Input) *groupSet {
	gs := &groupSet{
		byName: map[string]*EmployeeGroup{},
		metas:  map[string]roster.Meta{},
		sales:  map[string]decimal.Decimal{},
	}
	for key, amount := range in.Sales {
		if key.Month != in.Month {
			continue
		}
		if meta, ok := e.admit(in, key.Name); ok {
			gs.sales[meta.Name] = gs.sales[meta.Name].Add(amount)
		}
	}
	for _, meta := range in.Roster.Active() {
		if in.Department != "" && meta.Department != in.Department {
			continue
		}
		gs.ensure(meta)
	}
	return gs
}

func (gs *groupSet) ensure(meta roster.Meta) *EmployeeGroup {
	if g, ok := gs.byName[meta.Name]; ok {
		return g
	}
	g := &EmployeeGroup{
		Employee:    meta.Name,
		Department:  string(meta.Department),
		SalesAmount: gs.sales[meta.Name],
	}
	gs.byName[meta.Name] = g
	gs.metas[meta.Name] = meta
	return g
}

func (gs *groupSet) add(meta roster.Meta, rec Record) {
	g := gs.ensure(meta)
	g.Records = append(g.Records, rec)
	if rec.Status == StatusMatch {
		g.Matches++
	} else {
		g.Issues++
	}
}

// sorted returns the groups in report order: department rank, display
// order, then name, with each group's records date-ordered.
func (gs *groupSet) sorted() []EmployeeGroup {
	groups := make([]EmployeeGroup, 0, len(gs.byName))
	for _, g := range gs.byName {
		sort.Slice(g.Records, func(i, j int) bool {
			return g.Records[i].Date < g.Records[j].Date
		})
		groups = append(groups, *g)
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := gs.metas[groups[i].Employee], gs.metas[groups[j].Employee]
		if a.Department.Rank() != b.Department.Rank() {
			return a.Department.Rank() < b.Department.Rank()
		}
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		return groups[i].Employee < groups[j].Employee
	})
	return groups
}
