package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kensei/kintai-engine/kvstore"
)

// =============================================================================
// MANUAL WORKDAY OVERRIDES
// =============================================================================

// ErrBadOverride is returned for an override type other than
// workday/holiday.
var ErrBadOverride = errors.New("verify: override type must be workday or holiday")

// ErrNoOverride is returned when deleting an override that does not
// exist.
var ErrNoOverride = errors.New("verify: no manual override for date")

const workdaysKeyPrefix = "manual_workdays:"

// WorkdayStore persists per-month manual workday/holiday overrides,
// keyed by YYYY/MM/DD date. Overrides take precedence over the
// attendance-density holiday heuristic.
type WorkdayStore struct {
	kv kvstore.Store
}

// NewWorkdayStore creates an override store on the given KV backend.
func NewWorkdayStore(kv kvstore.Store) *WorkdayStore {
	return &WorkdayStore{kv: kv}
}

// List returns the month's overrides. An unset month yields an empty
// map.
func (s *WorkdayStore) List(ctx context.Context, month string) (map[string]string, error) {
	data, err := s.kv.Get(ctx, workdaysKeyPrefix+month)
	if errors.Is(err, kvstore.ErrNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var overrides map[string]string
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("corrupt workday overrides for %s: %w", month, err)
	}
	return overrides, nil
}

// Set marks a date as a workday or holiday.
func (s *WorkdayStore) Set(ctx context.Context, month, date, overrideType string) error {
	if overrideType != WorkdayOverride && overrideType != HolidayOverride {
		return ErrBadOverride
	}

	overrides, err := s.List(ctx, month)
	if err != nil {
		return err
	}
	overrides[date] = overrideType
	return s.save(ctx, month, overrides)
}

// Delete removes a date's override, returning it to automatic
// detection.
func (s *WorkdayStore) Delete(ctx context.Context, month, date string) error {
	overrides, err := s.List(ctx, month)
	if err != nil {
		return err
	}
	if _, ok := overrides[date]; !ok {
		return ErrNoOverride
	}
	delete(overrides, date)
	return s.save(ctx, month, overrides)
}

func (s *WorkdayStore) save(ctx context.Context, month string, overrides map[string]string) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, workdaysKeyPrefix+month, data)
}
