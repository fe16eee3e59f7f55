package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kensei/kintai-engine/kvstore"
)

// =============================================================================
// MONTHLY RESULT CACHE
// =============================================================================

// ErrNoResult is returned when no cached report exists for a month.
var ErrNoResult = errors.New("verify: no cached result for month")

const resultKeyPrefix = "verification_result:"

// Cache stores one verification report per month. Last write wins:
// results are a deterministic function of current inputs, so a
// concurrent recompute overwriting is acceptable.
type Cache struct {
	kv kvstore.Store
}

// NewCache creates a result cache on the given KV backend.
func NewCache(kv kvstore.Store) *Cache {
	return &Cache{kv: kv}
}

// Get returns the month's cached report, or ErrNoResult.
func (c *Cache) Get(ctx context.Context, month string) (*Report, error) {
	data, err := c.kv.Get(ctx, resultKeyPrefix+month)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrNoResult
	}
	if err != nil {
		return nil, err
	}

	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("corrupt verification result for %s: %w", month, err)
	}
	return &rep, nil
}

// Set overwrites the month's cached report.
func (c *Cache) Set(ctx context.Context, month string, rep *Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, resultKeyPrefix+month, data)
}
