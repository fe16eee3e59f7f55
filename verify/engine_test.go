package verify_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kensei/kintai-engine/report"
	"github.com/kensei/kintai-engine/roster"
	"github.com/kensei/kintai-engine/timesheet"
	"github.com/kensei/kintai-engine/verify"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func factoryEmployee(id, name string, order int) roster.Employee {
	return roster.Employee{
		ID:           id,
		Name:         name,
		CBOName:      name,
		Department:   roster.DepartmentFactory,
		Active:       true,
		DisplayOrder: order,
	}
}

func attendanceRow(name, date string, overtime float64) (timesheet.DayKey, timesheet.AttendanceDay) {
	return timesheet.DayKey{Name: name, Date: date},
		timesheet.AttendanceDay{OvertimeHours: decimal.NewFromFloat(overtime)}
}

func selfReport(id, name, date string, hours float64) report.SelfReport {
	return report.SelfReport{
		ID:       id,
		Date:     date,
		Employee: name,
		Category: "残業",
		Hours:    decimal.NewFromFloat(hours),
	}
}

func groupFor(t *testing.T, rep *verify.Report, name string) verify.EmployeeGroup {
	t.Helper()
	for _, g := range rep.ByEmployee {
		if g.Employee == name {
			return g
		}
	}
	t.Fatalf("no group for %s", name)
	return verify.EmployeeGroup{}
}

func recordOn(t *testing.T, group verify.EmployeeGroup, date string) verify.Record {
	t.Helper()
	for _, r := range group.Records {
		if r.Date == date {
			return r
		}
	}
	t.Fatalf("no record for %s on %s", group.Employee, date)
	return verify.Record{}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestEngine_Classification(t *testing.T) {
	// GIVEN: one employee with four days covering every outcome
	tanaka := "田中 祐太"
	idx := roster.NewIndex([]roster.Employee{factoryEmployee("emp_1", tanaka, 1)})

	attendance := timesheet.AttendanceIndex{}
	for _, day := range []struct {
		date     string
		overtime float64
	}{
		{"2025/06/02", 8.0}, // reported 8.2 -> match (within 0.5)
		{"2025/06/03", 8.0}, // reported 6.0 -> discrepancy
		{"2025/06/04", 2.0}, // not reported -> missing
	} {
		key, att := attendanceRow(tanaka, day.date, day.overtime)
		attendance[key] = att
	}

	input := verify.Input{
		Month: "2025-06",
		Rows: []timesheet.CBORow{
			{Employee: tanaka, Date: "2025/06/02"},
			{Employee: tanaka, Date: "2025/06/03"},
			{Employee: tanaka, Date: "2025/06/04"},
		},
		Attendance: attendance,
		Reports: []report.SelfReport{
			selfReport("r1", tanaka, "2025-06-02", 8.2),
			selfReport("r2", tanaka, "2025-06-03", 6.0),
			selfReport("r3", tanaka, "2025-06-05", 1.5), // no CBO -> excess
		},
		Roster: idx,
	}

	// WHEN
	rep := verify.NewEngine().Run(input)

	// THEN
	assert.Equal(t, 1, rep.Summary.Matches)
	assert.Equal(t, 1, rep.Summary.TimeDiscrepancies)
	assert.Equal(t, 1, rep.Summary.MissingReports)
	assert.Equal(t, 1, rep.Summary.ExcessReports)

	group := groupFor(t, rep, tanaka)
	assert.Equal(t, 1, group.Matches)
	assert.Equal(t, 3, group.Issues)
	require.Len(t, group.Records, 4)

	match := recordOn(t, group, "2025/06/02")
	assert.Equal(t, verify.StatusMatch, match.Status)
	assert.Equal(t, "✅", match.Icon)
	require.Len(t, match.SystemDetails, 1)
	assert.Equal(t, "r1", match.SystemDetails[0].ID)

	disc := recordOn(t, group, "2025/06/03")
	assert.Equal(t, verify.StatusDiscrepancy, disc.Status)
	assert.True(t, disc.Difference.Equal(decimal.NewFromFloat(2.0)), "difference = %s", disc.Difference)

	missing := recordOn(t, group, "2025/06/04")
	assert.Equal(t, verify.StatusMissing, missing.Status)
	assert.True(t, missing.SystemHours.IsZero())

	excess := recordOn(t, group, "2025/06/05")
	assert.Equal(t, verify.StatusExcess, excess.Status)
	assert.True(t, excess.CBOHours.IsZero())
}

func TestEngine_SameDayReportsSum(t *testing.T) {
	// GIVEN: two self-reports for the same employee-day totaling the CBO figure
	tanaka := "田中 祐太"
	idx := roster.NewIndex([]roster.Employee{factoryEmployee("emp_1", tanaka, 1)})
	key, att := attendanceRow(tanaka, "2025/06/02", 3.0)

	rep := verify.NewEngine().Run(verify.Input{
		Month:      "2025-06",
		Rows:       []timesheet.CBORow{{Employee: tanaka, Date: "2025/06/02"}},
		Attendance: timesheet.AttendanceIndex{key: att},
		Reports: []report.SelfReport{
			selfReport("r1", tanaka, "2025-06-02", 2.0),
			selfReport("r2", tanaka, "2025-06-02", 1.0),
		},
		Roster: idx,
	})

	assert.Equal(t, 1, rep.Summary.Matches)
	rec := recordOn(t, groupFor(t, rep, tanaka), "2025/06/02")
	assert.Equal(t, verify.StatusMatch, rec.Status)
	require.Len(t, rec.SystemDetails, 2)
}

func TestEngine_ComputedOvertimeWhenNoAttendanceRow(t *testing.T) {
	// GIVEN: a CBO block 08:00-20:00 and no attendance row. The
	// allocator computes 2.5h overtime (150min past the window, none
	// absorbed since in-window already fills the cap).
	tanaka := "田中 祐太"
	idx := roster.NewIndex([]roster.Employee{factoryEmployee("emp_1", tanaka, 1)})

	rep := verify.NewEngine().Run(verify.Input{
		Month: "2025-06",
		Rows: []timesheet.CBORow{{
			Employee: tanaka,
			Date:     "2025/06/02",
			Blocks: []timesheet.WorkBlock{{
				Range: timesheet.ParseRange("08:00～20:00"),
				Task:  "現場作業",
			}},
		}},
		Reports: []report.SelfReport{selfReport("r1", tanaka, "2025-06-02", 2.5)},
		Roster:  idx,
	})

	rec := recordOn(t, groupFor(t, rep, tanaka), "2025/06/02")
	assert.Equal(t, verify.StatusMatch, rec.Status)
	assert.True(t, rec.CBOHours.Equal(decimal.NewFromFloat(2.5)), "cbo hours = %s", rec.CBOHours)
}

func TestEngine_ScalarFiguresWhenNoBlocks(t *testing.T) {
	// GIVEN: a CBO row with no parseable time ranges but the export's
	// own overtime/early columns filled in, and no attendance row
	tanaka := "田中 祐太"
	idx := roster.NewIndex([]roster.Employee{factoryEmployee("emp_1", tanaka, 1)})

	rep := verify.NewEngine().Run(verify.Input{
		Month: "2025-06",
		Rows: []timesheet.CBORow{{
			Employee:      tanaka,
			Date:          "2025/06/02",
			OvertimeHours: decimal.NewFromFloat(2.0),
			EarlyHours:    decimal.NewFromFloat(0.5),
		}},
		Roster: idx,
	})

	// THEN: the scalar figures stand in for the allocator
	rec := recordOn(t, groupFor(t, rep, tanaka), "2025/06/02")
	assert.Equal(t, verify.StatusMissing, rec.Status)
	assert.True(t, rec.CBOHours.Equal(decimal.NewFromFloat(2.5)), "cbo hours = %s", rec.CBOHours)
}

func TestEngine_AttendanceOvertimeAuthoritative(t *testing.T) {
	// GIVEN: blocks implying overtime but an attendance row saying zero
	tanaka := "田中 祐太"
	idx := roster.NewIndex([]roster.Employee{factoryEmployee("emp_1", tanaka, 1)})
	key, att := attendanceRow(tanaka, "2025/06/02", 0)

	rep := verify.NewEngine().Run(verify.Input{
		Month: "2025-06",
		Rows: []timesheet.CBORow{{
			Employee: tanaka,
			Date:     "2025/06/02",
			Blocks: []timesheet.WorkBlock{{
				Range: timesheet.ParseRange("08:00～20:00"),
				Task:  "現場作業",
			}},
		}},
		Attendance: timesheet.AttendanceIndex{key: att},
		Roster:     idx,
	})

	// THEN: the HR figure wins even when zero; with no report the day
	// is simply attended, not missing.
	group := groupFor(t, rep, tanaka)
	assert.Empty(t, group.Records)
	assert.Equal(t, 0, rep.Summary.MissingReports)
}

func TestEngine_InactiveAndUnregisteredDropped(t *testing.T) {
	tanaka := "田中 祐太"
	retired := roster.Employee{
		ID: "emp_2", Name: "退職 次郎", CBOName: "退職 次郎",
		Department: roster.DepartmentFactory, Active: false,
	}
	idx := roster.NewIndex([]roster.Employee{factoryEmployee("emp_1", tanaka, 1), retired})

	k1, a1 := attendanceRow("退職 次郎", "2025/06/02", 5)
	k2, a2 := attendanceRow("知らない 人", "2025/06/02", 5)

	rep := verify.NewEngine().Run(verify.Input{
		Month: "2025-06",
		Rows: []timesheet.CBORow{
			{Employee: "退職 次郎", Date: "2025/06/02"},
			{Employee: "知らない 人", Date: "2025/06/02"},
		},
		Attendance: timesheet.AttendanceIndex{k1: a1, k2: a2},
		Reports:    []report.SelfReport{selfReport("r1", "退職 次郎", "2025-06-02", 5)},
		Roster:     idx,
	})

	// Only the active employee's (empty) group remains.
	require.Len(t, rep.ByEmployee, 1)
	assert.Equal(t, tanaka, rep.ByEmployee[0].Employee)
	assert.Equal(t, 0, rep.Summary.Matches+rep.Summary.MissingReports+rep.Summary.ExcessReports)
}

// =============================================================================
// MISSING-DAY DETECTION
// =============================================================================

// Trailing digits get stripped during name normalization, so fixture
// names must not end in one or the roster entries collide.
var crewNames = []string{
	"佐藤 一郎", "鈴木 二郎", "高橋 三郎", "田中 四郎",
	"伊藤 五郎", "渡辺 六郎", "山本 七郎", "中村 八郎",
}

// missingDayFixture builds eight active employees where everyone but
// the first has a CBO record on the given date.
func missingDayFixture(date string) ([]roster.Employee, []timesheet.CBORow) {
	var employees []roster.Employee
	var rows []timesheet.CBORow
	for i, name := range crewNames {
		employees = append(employees, factoryEmployee(fmt.Sprintf("emp_%d", i), name, i))
		if i > 0 {
			rows = append(rows, timesheet.CBORow{Employee: name, Date: date})
		}
	}
	return employees, rows
}

func TestEngine_MissingDayFlaggedAboveThreshold(t *testing.T) {
	// GIVEN: 7 of 8 employees have punch data on June 2 (above the
	// threshold of 5), the first has none
	employees, rows := missingDayFixture("2025/06/02")

	rep := verify.NewEngine().Run(verify.Input{
		Month:  "2025-06",
		Rows:   rows,
		Roster: roster.NewIndex(employees),
	})

	// THEN: June 2 is a working day and the absent employee is flagged
	assert.Equal(t, 1, rep.Summary.NoPunchDays)
	assert.Equal(t, []string{"佐藤 一郎"}, rep.Missing.ByDate["2025/06/02"])

	rec := recordOn(t, groupFor(t, rep, "佐藤 一郎"), "2025/06/02")
	assert.Equal(t, verify.StatusNoPunch, rec.Status)
	assert.Equal(t, "❌", rec.Icon)

	// All other June days have no punch data at all -> inferred holidays.
	assert.Contains(t, rep.Missing.Holidays, "2025/06/03")
	assert.NotContains(t, rep.Missing.Holidays, "2025/06/02")
}

func TestEngine_BelowThresholdInferredHoliday(t *testing.T) {
	// GIVEN: only 2 employees with punch data against a threshold of 5
	tanaka := "田中 祐太"
	sato := "佐藤 健"
	idx := roster.NewIndex([]roster.Employee{
		factoryEmployee("emp_1", tanaka, 1),
		factoryEmployee("emp_2", sato, 2),
		factoryEmployee("emp_3", "山田 三郎", 3),
	})

	rep := verify.NewEngine().Run(verify.Input{
		Month: "2025-06",
		Rows: []timesheet.CBORow{
			{Employee: tanaka, Date: "2025/06/02"},
			{Employee: sato, Date: "2025/06/02"},
		},
		Roster: idx,
	})

	assert.Equal(t, 0, rep.Summary.NoPunchDays)
	assert.Contains(t, rep.Missing.Holidays, "2025/06/02")
}

func TestEngine_ManualOverridesBeatHeuristic(t *testing.T) {
	employees, rows := missingDayFixture("2025/06/02")

	// GIVEN: June 2 manually forced to holiday, June 3 to workday
	rep := verify.NewEngine().Run(verify.Input{
		Month:  "2025-06",
		Rows:   rows,
		Roster: roster.NewIndex(employees),
		Workdays: map[string]string{
			"2025/06/02": verify.HolidayOverride,
			"2025/06/03": verify.WorkdayOverride,
		},
	})

	// THEN: nobody is flagged on June 2; everyone is on June 3
	assert.Empty(t, rep.Missing.ByDate["2025/06/02"])
	assert.Len(t, rep.Missing.ByDate["2025/06/03"], 8)
	assert.Contains(t, rep.Missing.Holidays, "2025/06/02")
}

// =============================================================================
// GROUPING AND ORDERING
// =============================================================================

func TestEngine_EmployeeOrdering(t *testing.T) {
	// GIVEN: management and factory employees with punch data
	mgmt := roster.Employee{
		ID: "emp_m", Name: "管理 一郎", CBOName: "管理 一郎",
		Department: roster.DepartmentManagement, Active: true, DisplayOrder: 1,
	}
	idx := roster.NewIndex([]roster.Employee{
		mgmt,
		factoryEmployee("emp_2", "工場 次郎", 2),
		factoryEmployee("emp_1", "工場 三郎", 1),
	})

	rep := verify.NewEngine().Run(verify.Input{
		Month:  "2025-06",
		Roster: idx,
	})

	require.Len(t, rep.ByEmployee, 3)
	assert.Equal(t, "工場 三郎", rep.ByEmployee[0].Employee)
	assert.Equal(t, "工場 次郎", rep.ByEmployee[1].Employee)
	assert.Equal(t, "管理 一郎", rep.ByEmployee[2].Employee)
}

func TestEngine_DepartmentFilter(t *testing.T) {
	mgmt := roster.Employee{
		ID: "emp_m", Name: "管理 一郎", CBOName: "管理 一郎",
		Department: roster.DepartmentManagement, Active: true,
	}
	idx := roster.NewIndex([]roster.Employee{mgmt, factoryEmployee("emp_1", "工場 太郎", 1)})
	key, att := attendanceRow("管理 一郎", "2025/06/02", 2)

	rep := verify.NewEngine().Run(verify.Input{
		Month:      "2025-06",
		Rows:       []timesheet.CBORow{{Employee: "管理 一郎", Date: "2025/06/02"}},
		Attendance: timesheet.AttendanceIndex{key: att},
		Roster:     idx,
		Department: roster.DepartmentFactory,
	})

	// Only the factory group appears; the management row was dropped.
	require.Len(t, rep.ByEmployee, 1)
	assert.Equal(t, "工場 太郎", rep.ByEmployee[0].Employee)
	assert.Equal(t, 0, rep.Summary.MissingReports)
}

func TestEngine_SalesAttachedToGroups(t *testing.T) {
	tanaka := "田中 祐太"
	idx := roster.NewIndex([]roster.Employee{factoryEmployee("emp_1", tanaka, 1)})

	rep := verify.NewEngine().Run(verify.Input{
		Month:  "2025-06",
		Roster: idx,
		Sales: map[timesheet.SalesKey]decimal.Decimal{
			{Name: tanaka, Month: "2025-06"}: decimal.NewFromInt(2000000),
			{Name: tanaka, Month: "2025-05"}: decimal.NewFromInt(999999), // other month ignored
		},
	})

	group := groupFor(t, rep, tanaka)
	assert.True(t, group.SalesAmount.Equal(decimal.NewFromInt(2000000)), "sales = %s", group.SalesAmount)
}
