package roster

import (
	"sort"

	"github.com/kensei/kintai-engine/timesheet"
)

// =============================================================================
// NAME LOOKUP INDEX
// =============================================================================

// Meta is the identity a CSV row resolves to.
type Meta struct {
	EmployeeID   string
	Name         string // roster display name
	Department   Department
	DisplayOrder int
	Active       bool
}

// Index maps normalized names to employee identity. Both the display
// name and the CBO-export name resolve to the same identity. Built
// once per verification run from the full roster snapshot.
//
// Known limitation: if two different employees normalize to the same
// key, the later roster entry wins. Roster ordering is deterministic,
// so the collision is at least stable.
type Index struct {
	byName map[string]Meta
}

// NewIndex builds the lookup from a roster snapshot.
func NewIndex(employees []Employee) *Index {
	byName := make(map[string]Meta, len(employees)*2)
	for _, emp := range employees {
		meta := Meta{
			EmployeeID:   emp.ID,
			Name:         emp.Name,
			Department:   emp.Department,
			DisplayOrder: emp.DisplayOrder,
			Active:       emp.Active,
		}
		if key := timesheet.NormalizeName(emp.Name); key != "" {
			byName[key] = meta
		}
		if key := timesheet.NormalizeName(emp.CBOName); key != "" {
			byName[key] = meta
		}
	}
	return &Index{byName: byName}
}

// Lookup resolves a normalized name to employee identity.
func (ix *Index) Lookup(normalizedName string) (Meta, bool) {
	meta, ok := ix.byName[normalizedName]
	return meta, ok
}

// Active returns the distinct active employees in report order:
// department rank, display order, then name. Used for missing-day
// detection, which has to consider employees with no CBO rows at all.
func (ix *Index) Active() []Meta {
	seen := make(map[string]bool)
	var active []Meta
	for _, meta := range ix.byName {
		if !meta.Active || seen[meta.EmployeeID] {
			continue
		}
		seen[meta.EmployeeID] = true
		active = append(active, meta)
	}

	sort.Slice(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if a.Department.Rank() != b.Department.Rank() {
			return a.Department.Rank() < b.Department.Rank()
		}
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		return a.Name < b.Name
	})
	return active
}
