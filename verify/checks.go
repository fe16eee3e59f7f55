package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kensei/kintai-engine/kvstore"
)

// =============================================================================
// CONFIRMATION CHECK STORE
// =============================================================================

// Check types accepted by Update.
const (
	CheckSelf  = "self"  // the employee confirmed the record
	CheckAdmin = "admin" // the office confirmed the record
)

// ErrBadCheckType is returned for a check type other than self/admin.
var ErrBadCheckType = errors.New("verify: check type must be self or admin")

const checksKeyPrefix = "verification_checks:"

// CheckState is the persisted confirmation state of one record.
type CheckState struct {
	Employee string     `json:"employee"`
	Date     string     `json:"date"` // YYYY/MM/DD
	Self     bool       `json:"self"`
	SelfAt   *time.Time `json:"self_at,omitempty"`
	Admin    bool       `json:"admin"`
	AdminAt  *time.Time `json:"admin_at,omitempty"`
}

// CheckStore persists confirmation check marks per month, separately
// from the cached report, so a recompute does not wipe them.
type CheckStore struct {
	kv kvstore.Store
}

// NewCheckStore creates a check store on the given KV backend.
func NewCheckStore(kv kvstore.Store) *CheckStore {
	return &CheckStore{kv: kv}
}

// Update sets or clears one check mark and returns the record's new
// state.
func (s *CheckStore) Update(ctx context.Context, month, employee, date, checkType string, checked bool) (CheckState, error) {
	if checkType != CheckSelf && checkType != CheckAdmin {
		return CheckState{}, ErrBadCheckType
	}

	states, err := s.load(ctx, month)
	if err != nil {
		return CheckState{}, err
	}

	idx := -1
	for i, st := range states {
		if st.Employee == employee && st.Date == date {
			idx = i
			break
		}
	}
	if idx < 0 {
		states = append(states, CheckState{Employee: employee, Date: date})
		idx = len(states) - 1
	}

	now := time.Now().UTC()
	st := &states[idx]
	switch checkType {
	case CheckSelf:
		st.Self = checked
		st.SelfAt = nil
		if checked {
			st.SelfAt = &now
		}
	case CheckAdmin:
		st.Admin = checked
		st.AdminAt = nil
		if checked {
			st.AdminAt = &now
		}
	}

	if err := s.save(ctx, month, states); err != nil {
		return CheckState{}, err
	}
	return *st, nil
}

// Apply copies persisted check marks onto a freshly computed report.
func (s *CheckStore) Apply(ctx context.Context, rep *Report) error {
	states, err := s.load(ctx, rep.Month)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return nil
	}

	type pair struct{ employee, date string }
	byKey := make(map[pair]CheckState, len(states))
	for _, st := range states {
		byKey[pair{st.Employee, st.Date}] = st
	}

	for gi := range rep.ByEmployee {
		group := &rep.ByEmployee[gi]
		for ri := range group.Records {
			rec := &group.Records[ri]
			st, ok := byKey[pair{group.Employee, rec.Date}]
			if !ok {
				continue
			}
			rec.SelfChecked = st.Self
			rec.SelfCheckedAt = st.SelfAt
			rec.AdminChecked = st.Admin
			rec.AdminCheckedAt = st.AdminAt
		}
	}
	return nil
}

func (s *CheckStore) load(ctx context.Context, month string) ([]CheckState, error) {
	data, err := s.kv.Get(ctx, checksKeyPrefix+month)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var states []CheckState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("corrupt check states for %s: %w", month, err)
	}
	return states, nil
}

func (s *CheckStore) save(ctx context.Context, month string, states []CheckState) error {
	data, err := json.Marshal(states)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, checksKeyPrefix+month, data)
}
