/*
Package roster manages the employee roster and the name-to-identity
index used to join CSV exports against it.

PURPOSE:
  Employees are created and edited through the admin UI and persisted
  in the KV store. Timesheet exports refer to employees by display
  name (with an appended employee number); the roster additionally
  records the exact name used by the CBO export so both spellings
  resolve to the same identity.

KEY CONCEPTS:
  - Employee: roster record (department, active flag, display order)
  - Store: CRUD over the KV store
  - Index: normalized-name lookup built per verification run

SEE ALSO:
  - index.go: the lookup index
  - timesheet/name.go: name normalization
*/
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kensei/kintai-engine/kvstore"
)

// Department is the organizational unit an employee belongs to.
// Reports group factory before management.
type Department string

const (
	DepartmentFactory    Department = "factory"
	DepartmentManagement Department = "management"
)

// Valid reports whether the department is a known value.
func (d Department) Valid() bool {
	return d == DepartmentFactory || d == DepartmentManagement
}

// Rank orders departments for report output: factory first, then
// management, unknown last.
func (d Department) Rank() int {
	switch d {
	case DepartmentFactory:
		return 0
	case DepartmentManagement:
		return 1
	default:
		return 2
	}
}

// Employee is one roster record. CBOName is the name exactly as the
// CBO export spells it, which may differ from the display name.
type Employee struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	CBOName      string     `json:"cbo_name"`
	Department   Department `json:"department"`
	Active       bool       `json:"active"`
	DisplayOrder int        `json:"display_order"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ErrNotFound is returned when an employee ID does not exist.
var ErrNotFound = errors.New("roster: employee not found")

const (
	keyPrefix = "employee:"
	setAll    = "employees:all"
	setActive = "employees:active"
)

// Store persists the roster in the KV store.
type Store struct {
	kv kvstore.Store
}

// NewStore creates a roster store on the given KV backend.
func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Create adds a new employee. ID, timestamps and the active flag are
// assigned here; new employees start active.
func (s *Store) Create(ctx context.Context, emp Employee) (Employee, error) {
	emp.ID = "emp_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	emp.Active = true
	now := time.Now().UTC()
	emp.CreatedAt = now
	emp.UpdatedAt = now

	if err := s.save(ctx, emp); err != nil {
		return Employee{}, err
	}
	if err := s.kv.SAdd(ctx, setAll, emp.ID); err != nil {
		return Employee{}, err
	}
	if err := s.kv.SAdd(ctx, setActive, emp.ID); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

// Get returns one employee by ID.
func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	data, err := s.kv.Get(ctx, keyPrefix+id)
	if errors.Is(err, kvstore.ErrNotFound) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}

	var emp Employee
	if err := json.Unmarshal(data, &emp); err != nil {
		return Employee{}, fmt.Errorf("corrupt employee record %s: %w", id, err)
	}
	return emp, nil
}

// Patch is a partial employee update. Empty string fields keep the
// stored value; DisplayOrder is a pointer so an explicit zero is
// distinguishable from unset.
type Patch struct {
	Name         string
	CBOName      string
	Department   Department
	DisplayOrder *int
}

// Update applies new field values to an existing employee, matching
// the partial-update semantics of the admin UI.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (Employee, error) {
	emp, err := s.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}

	if patch.Name != "" {
		emp.Name = patch.Name
	}
	if patch.CBOName != "" {
		emp.CBOName = patch.CBOName
	}
	if patch.Department != "" {
		emp.Department = patch.Department
	}
	if patch.DisplayOrder != nil {
		emp.DisplayOrder = *patch.DisplayOrder
	}
	emp.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, emp); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

// Toggle flips the active flag. Inactive employees stay listed in the
// roster but drop out of reconciliation entirely.
func (s *Store) Toggle(ctx context.Context, id string) (Employee, error) {
	emp, err := s.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}

	emp.Active = !emp.Active
	emp.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, emp); err != nil {
		return Employee{}, err
	}

	if emp.Active {
		err = s.kv.SAdd(ctx, setActive, emp.ID)
	} else {
		err = s.kv.SRem(ctx, setActive, emp.ID)
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

// Delete removes an employee permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, keyPrefix+id); err != nil {
		return err
	}
	if err := s.kv.SRem(ctx, setAll, id); err != nil {
		return err
	}
	return s.kv.SRem(ctx, setActive, id)
}

// List returns the full roster, active and inactive, ordered by
// department rank, display order, then name.
func (s *Store) List(ctx context.Context) ([]Employee, error) {
	return s.listSet(ctx, setAll)
}

// ListActive returns only active employees, in the same order as
// List, using the active index set.
func (s *Store) ListActive(ctx context.Context) ([]Employee, error) {
	return s.listSet(ctx, setActive)
}

func (s *Store) listSet(ctx context.Context, set string) ([]Employee, error) {
	ids, err := s.kv.SMembers(ctx, set)
	if err != nil {
		return nil, err
	}

	employees := make([]Employee, 0, len(ids))
	for _, id := range ids {
		emp, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // dangling index entry
		}
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}

	sort.Slice(employees, func(i, j int) bool {
		a, b := employees[i], employees[j]
		if a.Department.Rank() != b.Department.Rank() {
			return a.Department.Rank() < b.Department.Rank()
		}
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		return a.Name < b.Name
	})
	return employees, nil
}

func (s *Store) save(ctx context.Context, emp Employee) error {
	data, err := json.Marshal(emp)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, keyPrefix+emp.ID, data)
}
