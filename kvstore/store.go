/*
Package kvstore defines the key-value persistence interface for the
attendance system.

PURPOSE:
  Every piece of state in this system - the employee roster, submitted
  overtime reports, uploaded CBO data, cached verification results,
  manual workday overrides, settings - lives behind this one interface.
  The interface is deliberately small: string keys to opaque byte values,
  plus named string sets for indexes (all reports of a month, all
  employee IDs).

KEY NAMESPACES:
  employee:{id}              roster record (JSON)
  employees:all              set of all employee IDs
  employees:active           set of active employee IDs
  report:{id}                self-report record (JSON)
  reports:{YYYY-MM}          set of report IDs for a month
  cbo_data:{YYYY-MM}         parsed CBO upload for a month (JSON)
  verification_result:{YYYY-MM}  cached verification report (JSON)
  verification_checks:{YYYY-MM}  persisted check states (JSON)
  manual_workdays:{YYYY-MM}  per-date workday/holiday overrides (JSON)
  config:line_notification   notification toggle ("true"/"false")

CONCURRENCY:
  The store is the only shared mutable resource. All writes are
  last-write-wins; the verification cache in particular is an explicit
  deterministic-recompute-and-overwrite design, so no distributed
  locking is needed.

IMPLEMENTATIONS:
  - kvstore/sqlite: production default, single file on disk
  - kvstore/redis:  for deployments that already run Redis
  - kvstore/memory: for tests

SEE ALSO:
  - roster/employee.go, report/report.go, verify/service.go: consumers
*/
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
// Callers that treat absence as a normal condition (missing cache entry,
// unset toggle) must check with errors.Is.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the persistence boundary. Keys are flat strings; values are
// opaque to the store. Sets hold unordered unique string members and are
// used purely as secondary indexes.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// SAdd adds member to the named set.
	SAdd(ctx context.Context, set, member string) error

	// SRem removes member from the named set. Removing a missing
	// member is not an error.
	SRem(ctx context.Context, set, member string) error

	// SMembers returns all members of the named set. A missing set
	// yields an empty slice, not an error.
	SMembers(ctx context.Context, set string) ([]string, error)

	// Close releases underlying resources.
	Close() error
}
