package report_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kensei/kintai-engine/kvstore/memory"
	"github.com/kensei/kintai-engine/report"
)

func newTestStore(t *testing.T) *report.Store {
	kv := memory.New()
	t.Cleanup(func() { kv.Close() })
	return report.NewStore(kv)
}

func hours(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestStore_SubmitFansOutPerEmployee(t *testing.T) {
	// GIVEN: one submission covering two employees
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.Submit(ctx, "2025-06-02", "残業", []report.Entry{
		{Employee: "田中 祐太", Hours: hours(2.5)},
		{Employee: "佐藤 健", Hours: hours(1.0)},
	})
	require.NoError(t, err)

	// THEN: each employee gets an individual record sharing date and category
	require.Len(t, saved, 2)
	assert.NotEqual(t, saved[0].ID, saved[1].ID)
	for _, rep := range saved {
		assert.Equal(t, "2025-06-02", rep.Date)
		assert.Equal(t, "残業", rep.Category)
		assert.Equal(t, "2025-06", rep.Month())
	}
}

func TestStore_ListMonth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Submit(ctx, "2025-06-03", "残業", []report.Entry{{Employee: "佐藤 健", Hours: hours(1)}})
	require.NoError(t, err)
	_, err = store.Submit(ctx, "2025-06-02", "夜勤", []report.Entry{{Employee: "田中 祐太", Hours: hours(2)}})
	require.NoError(t, err)
	_, err = store.Submit(ctx, "2025-07-01", "残業", []report.Entry{{Employee: "田中 祐太", Hours: hours(3)}})
	require.NoError(t, err)

	june, err := store.ListMonth(ctx, "2025-06")
	require.NoError(t, err)
	require.Len(t, june, 2)

	// Date-ordered
	assert.Equal(t, "2025-06-02", june[0].Date)
	assert.Equal(t, "2025-06-03", june[1].Date)

	empty, err := store.ListMonth(ctx, "2025-01")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// =============================================================================
// EDITING
// =============================================================================

func TestStore_UpdateHoursAndCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saved, err := store.Submit(ctx, "2025-06-02", "残業", []report.Entry{{Employee: "田中 祐太", Hours: hours(2)}})
	require.NoError(t, err)

	newHours := hours(3.5)
	updated, err := store.Update(ctx, saved[0].ID, &newHours, "夜勤", "")
	require.NoError(t, err)

	assert.True(t, updated.Hours.Equal(newHours))
	assert.Equal(t, "夜勤", updated.Category)
	assert.Equal(t, "2025-06-02", updated.Date, "unspecified date keeps its value")
}

func TestStore_UpdateDateMovesMonthIndex(t *testing.T) {
	// GIVEN: a June report
	store := newTestStore(t)
	ctx := context.Background()
	saved, err := store.Submit(ctx, "2025-06-30", "残業", []report.Entry{{Employee: "田中 祐太", Hours: hours(2)}})
	require.NoError(t, err)

	// WHEN: moving it into July
	_, err = store.Update(ctx, saved[0].ID, nil, "", "2025-07-01")
	require.NoError(t, err)

	// THEN: month listings follow
	june, err := store.ListMonth(ctx, "2025-06")
	require.NoError(t, err)
	assert.Empty(t, june)

	july, err := store.ListMonth(ctx, "2025-07")
	require.NoError(t, err)
	require.Len(t, july, 1)
	assert.Equal(t, saved[0].ID, july[0].ID)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saved, err := store.Submit(ctx, "2025-06-02", "残業", []report.Entry{{Employee: "田中 祐太", Hours: hours(2)}})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, saved[0].ID))

	_, err = store.Get(ctx, saved[0].ID)
	assert.ErrorIs(t, err, report.ErrNotFound)

	june, err := store.ListMonth(ctx, "2025-06")
	require.NoError(t, err)
	assert.Empty(t, june)
}

func TestStore_UpdateMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Update(context.Background(), "nope", nil, "x", "")
	assert.ErrorIs(t, err, report.ErrNotFound)
}
