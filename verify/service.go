package verify

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kensei/kintai-engine/report"
	"github.com/kensei/kintai-engine/roster"
	"github.com/kensei/kintai-engine/timesheet"
)

// =============================================================================
// VERIFICATION SERVICE
// =============================================================================

// Service wires the engine to its stores: uploaded datasets, the
// roster, self-reports, the monthly cache, check marks and workday
// overrides.
type Service struct {
	engine   *Engine
	data     *DataStore
	cache    *Cache
	checks   *CheckStore
	workdays *WorkdayStore
	roster   *roster.Store
	reports  *report.Store
	log      *logrus.Logger
}

// NewService assembles a verification service.
func NewService(engine *Engine, data *DataStore, cache *Cache, checks *CheckStore, workdays *WorkdayStore, rosterStore *roster.Store, reports *report.Store, log *logrus.Logger) *Service {
	return &Service{
		engine:   engine,
		data:     data,
		cache:    cache,
		checks:   checks,
		workdays: workdays,
		roster:   rosterStore,
		reports:  reports,
		log:      log,
	}
}

// Upload parses the month's CSV exports and stores the dataset. The
// attendance and sales CSVs are optional; verification degrades to
// computed-only figures without them.
func (s *Service) Upload(ctx context.Context, month, cboCSV, attendanceCSV, salesCSV string) (UploadStats, error) {
	rows := timesheet.ParseCBOCSV(cboCSV)

	var att timesheet.AttendanceIndex
	if attendanceCSV != "" {
		att = timesheet.ParseAttendanceCSV(attendanceCSV)
	}
	var sales map[timesheet.SalesKey]decimal.Decimal
	if salesCSV != "" {
		sales = timesheet.ParseSalesCSV(salesCSV)
	}

	stats, err := s.data.Save(ctx, month, rows, att, sales)
	if err != nil {
		return UploadStats{}, err
	}

	s.log.WithFields(logrus.Fields{
		"month":     month,
		"records":   stats.TotalRecords,
		"employees": stats.Employees,
	}).Info("cbo dataset stored")
	return stats, nil
}

// Verify returns the month's verification report. With forceRefresh
// false a cached result is returned unchanged; with true the report
// is recomputed from current inputs and the cache overwritten. Check
// marks are re-applied either way, so confirmations survive a
// recompute. A non-empty department narrows the result to that
// department's employees.
func (s *Service) Verify(ctx context.Context, month string, forceRefresh bool, department roster.Department) (*Report, error) {
	var rep *Report

	if !forceRefresh {
		cached, err := s.cache.Get(ctx, month)
		if err != nil && !errors.Is(err, ErrNoResult) {
			return nil, err
		}
		rep = cached
	}

	if rep == nil {
		fresh, err := s.compute(ctx, month)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, month, fresh); err != nil {
			return nil, err
		}
		rep = fresh
	}

	if err := s.checks.Apply(ctx, rep); err != nil {
		return nil, err
	}
	if department != "" {
		rep = filterDepartment(rep, department)
	}
	return rep, nil
}

// UpdateCheck persists one check mark and pushes it into the cached
// report so subsequent cached reads see it.
func (s *Service) UpdateCheck(ctx context.Context, month, employee, date, checkType string, checked bool) (CheckState, error) {
	state, err := s.checks.Update(ctx, month, employee, date, checkType, checked)
	if err != nil {
		return CheckState{}, err
	}

	cached, err := s.cache.Get(ctx, month)
	if errors.Is(err, ErrNoResult) {
		return state, nil
	}
	if err != nil {
		return CheckState{}, err
	}
	if err := s.checks.Apply(ctx, cached); err != nil {
		return CheckState{}, err
	}
	if err := s.cache.Set(ctx, month, cached); err != nil {
		return CheckState{}, err
	}
	return state, nil
}

// Workdays exposes the manual override store.
func (s *Service) Workdays() *WorkdayStore {
	return s.workdays
}

// compute runs the engine over the month's current inputs.
func (s *Service) compute(ctx context.Context, month string) (*Report, error) {
	ds, err := s.data.Load(ctx, month)
	if err != nil {
		return nil, err
	}

	employees, err := s.roster.List(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ListMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	overrides, err := s.workdays.List(ctx, month)
	if err != nil {
		return nil, err
	}

	rep := s.engine.Run(Input{
		Month:      month,
		Rows:       ds.Rows,
		Attendance: ds.AttendanceIndex(),
		Sales:      ds.SalesIndex(),
		Reports:    reports,
		Roster:     roster.NewIndex(employees),
		Workdays:   overrides,
	})

	s.log.WithFields(logrus.Fields{
		"month":         month,
		"matches":       rep.Summary.Matches,
		"missing":       rep.Summary.MissingReports,
		"excess":        rep.Summary.ExcessReports,
		"discrepancies": rep.Summary.TimeDiscrepancies,
	}).Info("verification computed")
	return rep, nil
}

// filterDepartment narrows a report to one department, recomputing
// the summary from the records that remain.
func filterDepartment(rep *Report, department roster.Department) *Report {
	out := &Report{
		Month:      rep.Month,
		VerifiedAt: rep.VerifiedAt,
	}
	out.Summary.TotalCBORecords = rep.Summary.TotalCBORecords
	out.Summary.TotalSystemReports = rep.Summary.TotalSystemReports

	kept := map[string]bool{}
	for _, group := range rep.ByEmployee {
		if group.Department != string(department) {
			continue
		}
		kept[group.Employee] = true
		out.ByEmployee = append(out.ByEmployee, group)
		for _, rec := range group.Records {
			switch rec.Status {
			case StatusMatch:
				out.Summary.Matches++
			case StatusMissing:
				out.Summary.MissingReports++
			case StatusExcess:
				out.Summary.ExcessReports++
			case StatusDiscrepancy:
				out.Summary.TimeDiscrepancies++
			case StatusNoPunch:
				out.Summary.NoPunchDays++
			}
		}
	}
	if out.ByEmployee == nil {
		out.ByEmployee = []EmployeeGroup{}
	}

	out.Missing = MissingDays{
		ByDate:   map[string][]string{},
		Holidays: rep.Missing.Holidays,
	}
	for date, names := range rep.Missing.ByDate {
		var filtered []string
		for _, name := range names {
			if kept[name] {
				filtered = append(filtered, name)
			}
		}
		if len(filtered) > 0 {
			out.Missing.ByDate[date] = filtered
		}
	}
	return out
}
