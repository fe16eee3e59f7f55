package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kensei/kintai-engine/kvstore"
	"github.com/kensei/kintai-engine/timesheet"
)

// =============================================================================
// UPLOADED CBO DATASET STORE
// =============================================================================

// ErrNoData is returned when no CBO dataset has been uploaded for the
// requested month. The caller must upload before verifying.
var ErrNoData = errors.New("verify: no cbo data for month")

const dataKeyPrefix = "cbo_data:"

// AttendanceEntry is one attendance row in storable form. The in-memory
// index is map-keyed by a struct, which JSON cannot express.
type AttendanceEntry struct {
	Employee string                  `json:"employee"`
	Date     string                  `json:"date"`
	Day      timesheet.AttendanceDay `json:"day"`
}

// SalesEntry is one employee-month sales total in storable form.
type SalesEntry struct {
	Employee string          `json:"employee"`
	Month    string          `json:"month"`
	Amount   decimal.Decimal `json:"amount"`
}

// Dataset is one month's uploaded CBO, attendance and sales data.
type Dataset struct {
	Month      string             `json:"month"`
	UploadedAt time.Time          `json:"uploaded_at"`
	Rows       []timesheet.CBORow `json:"rows"`
	Attendance []AttendanceEntry  `json:"attendance,omitempty"`
	Sales      []SalesEntry       `json:"sales,omitempty"`
}

// AttendanceIndex rebuilds the attendance lookup from storable form.
func (d Dataset) AttendanceIndex() timesheet.AttendanceIndex {
	idx := make(timesheet.AttendanceIndex, len(d.Attendance))
	for _, e := range d.Attendance {
		idx[timesheet.DayKey{Name: e.Employee, Date: e.Date}] = e.Day
	}
	return idx
}

// SalesIndex rebuilds the sales lookup from storable form.
func (d Dataset) SalesIndex() map[timesheet.SalesKey]decimal.Decimal {
	idx := make(map[timesheet.SalesKey]decimal.Decimal, len(d.Sales))
	for _, e := range d.Sales {
		key := timesheet.SalesKey{Name: e.Employee, Month: e.Month}
		idx[key] = idx[key].Add(e.Amount)
	}
	return idx
}

// UploadStats summarizes a stored dataset for the upload response.
type UploadStats struct {
	TotalRecords int             `json:"total_records"`
	Employees    int             `json:"employees"`
	DateStart    string          `json:"date_start"`
	DateEnd      string          `json:"date_end"`
	TotalHours   decimal.Decimal `json:"total_hours"`
}

// DataStore persists uploaded month datasets in the KV store.
type DataStore struct {
	kv kvstore.Store
}

// NewDataStore creates a dataset store on the given KV backend.
func NewDataStore(kv kvstore.Store) *DataStore {
	return &DataStore{kv: kv}
}

// Save overwrites the month's dataset and returns upload statistics.
// An upload with zero parsed rows is rejected so a bad file cannot
// silently wipe a good one.
func (s *DataStore) Save(ctx context.Context, month string, rows []timesheet.CBORow, att timesheet.AttendanceIndex, sales map[timesheet.SalesKey]decimal.Decimal) (UploadStats, error) {
	if len(rows) == 0 {
		return UploadStats{}, fmt.Errorf("verify: no valid records in upload for %s", month)
	}

	ds := Dataset{
		Month:      month,
		UploadedAt: time.Now().UTC(),
		Rows:       rows,
	}
	for key, day := range att {
		ds.Attendance = append(ds.Attendance, AttendanceEntry{
			Employee: key.Name,
			Date:     key.Date,
			Day:      day,
		})
	}
	for key, amount := range sales {
		ds.Sales = append(ds.Sales, SalesEntry{
			Employee: key.Name,
			Month:    key.Month,
			Amount:   amount,
		})
	}

	data, err := json.Marshal(ds)
	if err != nil {
		return UploadStats{}, err
	}
	if err := s.kv.Set(ctx, dataKeyPrefix+month, data); err != nil {
		return UploadStats{}, err
	}
	return stats(ds), nil
}

// Load returns the month's dataset, or ErrNoData when nothing has
// been uploaded yet.
func (s *DataStore) Load(ctx context.Context, month string) (Dataset, error) {
	data, err := s.kv.Get(ctx, dataKeyPrefix+month)
	if errors.Is(err, kvstore.ErrNotFound) {
		return Dataset{}, ErrNoData
	}
	if err != nil {
		return Dataset{}, err
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("corrupt cbo dataset for %s: %w", month, err)
	}
	return ds, nil
}

func stats(ds Dataset) UploadStats {
	st := UploadStats{TotalRecords: len(ds.Rows)}

	employees := make(map[string]bool)
	for _, row := range ds.Rows {
		employees[row.Employee] = true
		if st.DateStart == "" || row.Date < st.DateStart {
			st.DateStart = row.Date
		}
		if row.Date > st.DateEnd {
			st.DateEnd = row.Date
		}
		for _, b := range row.Blocks {
			st.TotalHours = st.TotalHours.Add(b.Range.Hours())
		}
	}
	st.Employees = len(employees)
	st.TotalHours = st.TotalHours.Round(1)
	return st
}
