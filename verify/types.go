/*
Package verify reconciles CBO timesheet exports against self-submitted
overtime reports.

PURPOSE:
  Once a month the office uploads the CBO export (worked time ranges)
  and the HR attendance export (authoritative overtime and holiday
  work). This package computes per-employee-per-date overtime from the
  uploaded data, compares it against what employees reported through
  the form, and classifies every (employee, date) pair as a match, a
  discrepancy, a missing report, an excess report, or a day with no
  punch data at all.

  Results are grouped per employee, ordered by department rank then
  display order, and cached per month so repeated page loads do not
  recompute. Confirmation check marks (employee and office) survive a
  recompute because they are persisted separately and re-applied.

SEE ALSO:
  - timesheet: CSV parsing and shift allocation
  - roster: employee identity and name lookup
  - report: the self-report store this package reads from
*/
package verify

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status classifies one (employee, date) comparison outcome.
type Status string

const (
	// StatusMatch: CBO and self-reported hours agree within tolerance.
	StatusMatch Status = "match"
	// StatusDiscrepancy: both sides present, hours differ beyond tolerance.
	StatusDiscrepancy Status = "discrepancy"
	// StatusMissing: CBO shows hours but no self-report exists.
	StatusMissing Status = "missing"
	// StatusExcess: a self-report exists with no CBO hours behind it.
	StatusExcess Status = "excess"
	// StatusNoPunch: a working day with no CBO record at all.
	StatusNoPunch Status = "no_punch"
)

// Icon returns the marker shown next to a record in the UI.
func (s Status) Icon() string {
	switch s {
	case StatusMatch:
		return "✅"
	case StatusDiscrepancy, StatusMissing:
		return "⚠️"
	case StatusExcess, StatusNoPunch:
		return "❌"
	}
	return ""
}

// SystemDetail is one self-report backing a record, for UI display
// and inline editing.
type SystemDetail struct {
	ID       string          `json:"id"`
	Category string          `json:"category"`
	Hours    decimal.Decimal `json:"hours"`
}

// Record is one (employee, date) comparison outcome.
type Record struct {
	Date          string          `json:"date"` // YYYY/MM/DD
	Status        Status          `json:"status"`
	Icon          string          `json:"icon"`
	CBOHours      decimal.Decimal `json:"cbo_hours"`
	SystemHours   decimal.Decimal `json:"system_hours"`
	Difference    decimal.Decimal `json:"difference"`
	SystemDetails []SystemDetail  `json:"system_details,omitempty"`

	SelfChecked    bool       `json:"self_checked"`
	SelfCheckedAt  *time.Time `json:"self_checked_at,omitempty"`
	AdminChecked   bool       `json:"admin_checked"`
	AdminCheckedAt *time.Time `json:"admin_checked_at,omitempty"`
}

// Locked reports whether the record is confirmed by both sides and
// should no longer be edited.
func (r Record) Locked() bool {
	return r.SelfChecked && r.AdminChecked
}

// EmployeeGroup is one employee's records for the month.
type EmployeeGroup struct {
	Employee    string          `json:"employee"`
	Department  string          `json:"department"`
	Matches     int             `json:"matches"`
	Issues      int             `json:"issues"`
	SalesAmount decimal.Decimal `json:"sales_amount"`
	Records     []Record        `json:"records"`
}

// Summary carries the month's headline counts.
type Summary struct {
	TotalCBORecords    int `json:"total_cbo_records"`
	TotalSystemReports int `json:"total_system_reports"`
	Matches            int `json:"matches"`
	MissingReports     int `json:"missing_reports"`
	ExcessReports      int `json:"excess_reports"`
	TimeDiscrepancies  int `json:"time_discrepancies"`
	NoPunchDays        int `json:"no_punch_days"`
}

// MissingDays describes working days without punch data.
type MissingDays struct {
	// ByDate maps YYYY/MM/DD to the employees missing that day.
	ByDate map[string][]string `json:"by_date"`
	// Holidays lists dates excluded from missing-day flagging, either
	// inferred from low attendance or set manually.
	Holidays []string `json:"holidays"`
}

// Report is one month's full verification result.
type Report struct {
	Month      string          `json:"month"` // YYYY-MM
	VerifiedAt time.Time       `json:"verified_at"`
	Summary    Summary         `json:"summary"`
	ByEmployee []EmployeeGroup `json:"by_employee"`
	Missing    MissingDays     `json:"missing_days"`
}
