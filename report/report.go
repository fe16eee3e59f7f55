/*
Package report manages self-submitted overtime reports.

PURPOSE:
  Employees (or the office on their behalf) submit worked-hours
  reports through the form: one date, one category, and hours per
  employee. Each employee's figure is stored as its own record and
  indexed by month, so the verification run can pull a month's worth
  in one query.

  These records are the "system" side of reconciliation: the CBO
  export says what the time clock saw, the self-reports say what
  people claimed.

SEE ALSO:
  - verify: reconciliation against CBO-computed figures
  - notify: push notification after submission
*/
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kensei/kintai-engine/kvstore"
)

// SelfReport is one stored submission for one employee.
type SelfReport struct {
	ID        string          `json:"id"`
	Date      string          `json:"date"` // YYYY-MM-DD
	Employee  string          `json:"employee"`
	Category  string          `json:"category"`
	Hours     decimal.Decimal `json:"hours"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Month returns the report's "YYYY-MM" month key.
func (r SelfReport) Month() string {
	if len(r.Date) < 7 {
		return ""
	}
	return r.Date[:7]
}

// Entry is one employee's figure within a submission.
type Entry struct {
	Employee string
	Hours    decimal.Decimal
}

// ErrNotFound is returned when a report ID does not exist.
var ErrNotFound = errors.New("report: not found")

const (
	keyPrefix      = "report:"
	monthSetPrefix = "reports:"
)

// Store persists self-reports in the KV store.
type Store struct {
	kv kvstore.Store
}

// NewStore creates a report store on the given KV backend.
func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Submit stores one report per entry, all sharing the submission's
// date and category, and returns the stored records.
func (s *Store) Submit(ctx context.Context, date, category string, entries []Entry) ([]SelfReport, error) {
	now := time.Now().UTC()
	saved := make([]SelfReport, 0, len(entries))

	for _, e := range entries {
		rep := SelfReport{
			ID:        uuid.NewString(),
			Date:      date,
			Employee:  e.Employee,
			Category:  category,
			Hours:     e.Hours,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.save(ctx, rep); err != nil {
			return saved, err
		}
		if err := s.kv.SAdd(ctx, monthSetPrefix+rep.Month(), rep.ID); err != nil {
			return saved, err
		}
		saved = append(saved, rep)
	}
	return saved, nil
}

// Get returns one report by ID.
func (s *Store) Get(ctx context.Context, id string) (SelfReport, error) {
	data, err := s.kv.Get(ctx, keyPrefix+id)
	if errors.Is(err, kvstore.ErrNotFound) {
		return SelfReport{}, ErrNotFound
	}
	if err != nil {
		return SelfReport{}, err
	}

	var rep SelfReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return SelfReport{}, fmt.Errorf("corrupt report record %s: %w", id, err)
	}
	return rep, nil
}

// ListMonth returns all reports of a "YYYY-MM" month, ordered by date
// then employee.
func (s *Store) ListMonth(ctx context.Context, month string) ([]SelfReport, error) {
	ids, err := s.kv.SMembers(ctx, monthSetPrefix+month)
	if err != nil {
		return nil, err
	}

	reports := make([]SelfReport, 0, len(ids))
	for _, id := range ids {
		rep, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // dangling index entry
		}
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Date != reports[j].Date {
			return reports[i].Date < reports[j].Date
		}
		return reports[i].Employee < reports[j].Employee
	})
	return reports, nil
}

// Update patches hours, category and/or date of a stored report. A
// date change across months moves the report between month indexes.
func (s *Store) Update(ctx context.Context, id string, hours *decimal.Decimal, category, date string) (SelfReport, error) {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return SelfReport{}, err
	}

	oldMonth := rep.Month()
	if hours != nil {
		rep.Hours = *hours
	}
	if category != "" {
		rep.Category = category
	}
	if date != "" {
		rep.Date = date
	}
	rep.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, rep); err != nil {
		return SelfReport{}, err
	}

	if newMonth := rep.Month(); newMonth != oldMonth {
		if err := s.kv.SRem(ctx, monthSetPrefix+oldMonth, id); err != nil {
			return SelfReport{}, err
		}
		if err := s.kv.SAdd(ctx, monthSetPrefix+newMonth, id); err != nil {
			return SelfReport{}, err
		}
	}
	return rep, nil
}

// Delete removes a report and its month-index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.kv.SRem(ctx, monthSetPrefix+rep.Month(), id); err != nil {
		return err
	}
	return s.kv.Delete(ctx, keyPrefix+id)
}

func (s *Store) save(ctx context.Context, rep SelfReport) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, keyPrefix+rep.ID, data)
}
