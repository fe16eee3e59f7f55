package roster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kensei/kintai-engine/kvstore/memory"
	"github.com/kensei/kintai-engine/roster"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *roster.Store {
	kv := memory.New()
	t.Cleanup(func() { kv.Close() })
	return roster.NewStore(kv)
}

func mustCreate(t *testing.T, store *roster.Store, name, cboName string, dept roster.Department, order int) roster.Employee {
	t.Helper()
	emp, err := store.Create(context.Background(), roster.Employee{
		Name:         name,
		CBOName:      cboName,
		Department:   dept,
		DisplayOrder: order,
	})
	require.NoError(t, err)
	return emp
}

// =============================================================================
// CRUD
// =============================================================================

func TestStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := mustCreate(t, store, "田中 祐太", "田中 祐太 023", roster.DepartmentFactory, 1)

	assert.NotEmpty(t, emp.ID)
	assert.True(t, emp.Active, "new employees start active")

	got, err := store.Get(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, emp.Name, got.Name)
	assert.Equal(t, emp.CBOName, got.CBOName)
	assert.Equal(t, roster.DepartmentFactory, got.Department)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "emp_nope")
	assert.ErrorIs(t, err, roster.ErrNotFound)
}

func TestStore_UpdatePartial(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	emp := mustCreate(t, store, "田中 祐太", "田中 祐太 023", roster.DepartmentFactory, 1)

	// WHEN: patching only the department
	updated, err := store.Update(ctx, emp.ID, roster.Patch{Department: roster.DepartmentManagement})
	require.NoError(t, err)

	// THEN: other fields are untouched
	assert.Equal(t, roster.DepartmentManagement, updated.Department)
	assert.Equal(t, "田中 祐太", updated.Name)
	assert.Equal(t, "田中 祐太 023", updated.CBOName)
	assert.Equal(t, 1, updated.DisplayOrder)
}

func TestStore_UpdateDisplayOrderToZero(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	emp := mustCreate(t, store, "田中 祐太", "田中 祐太", roster.DepartmentFactory, 5)

	// An explicit zero is a real update, not an unset field.
	zero := 0
	updated, err := store.Update(ctx, emp.ID, roster.Patch{DisplayOrder: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.DisplayOrder)

	// A nil pointer leaves the stored value alone.
	updated, err = store.Update(ctx, emp.ID, roster.Patch{Name: "田中 裕太"})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.DisplayOrder)
	assert.Equal(t, "田中 裕太", updated.Name)
}

func TestStore_ListActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	keep := mustCreate(t, store, "現役 太郎", "現役 太郎", roster.DepartmentFactory, 1)
	gone := mustCreate(t, store, "退職 次郎", "退職 次郎", roster.DepartmentFactory, 2)

	_, err := store.Toggle(ctx, gone.ID)
	require.NoError(t, err)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].ID)

	// Toggling back on restores the listing.
	_, err = store.Toggle(ctx, gone.ID)
	require.NoError(t, err)
	active, err = store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestStore_ToggleMaintainsActiveSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	emp := mustCreate(t, store, "田中 祐太", "田中 祐太", roster.DepartmentFactory, 1)

	off, err := store.Toggle(ctx, emp.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)

	// Inactive employees stay visible in the roster listing.
	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Active)

	on, err := store.Toggle(ctx, emp.ID)
	require.NoError(t, err)
	assert.True(t, on.Active)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	emp := mustCreate(t, store, "田中 祐太", "田中 祐太", roster.DepartmentFactory, 1)

	require.NoError(t, store.Delete(ctx, emp.ID))

	_, err := store.Get(ctx, emp.ID)
	assert.ErrorIs(t, err, roster.ErrNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_ListOrder(t *testing.T) {
	// GIVEN: employees across departments and display orders
	store := newTestStore(t)
	mustCreate(t, store, "管理 一郎", "管理 一郎", roster.DepartmentManagement, 1)
	mustCreate(t, store, "工場 次郎", "工場 次郎", roster.DepartmentFactory, 2)
	mustCreate(t, store, "工場 三郎", "工場 三郎", roster.DepartmentFactory, 1)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)

	// THEN: factory before management, display order within
	assert.Equal(t, "工場 三郎", list[0].Name)
	assert.Equal(t, "工場 次郎", list[1].Name)
	assert.Equal(t, "管理 一郎", list[2].Name)
}

// =============================================================================
// NAME LOOKUP INDEX
// =============================================================================

func TestIndex_LookupByEitherName(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, "田中 祐太", "田中 祐太 023", roster.DepartmentFactory, 1)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	idx := roster.NewIndex(list)

	// Both the display name and the normalized CBO name resolve.
	byDisplay, ok := idx.Lookup("田中 祐太")
	require.True(t, ok)

	byCBO, ok := idx.Lookup("田中 祐太")
	require.True(t, ok)
	assert.Equal(t, byDisplay.EmployeeID, byCBO.EmployeeID)
	assert.Equal(t, roster.DepartmentFactory, byDisplay.Department)
}

func TestIndex_ActiveExcludesToggledOff(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	keep := mustCreate(t, store, "現役 太郎", "現役 太郎", roster.DepartmentFactory, 1)
	gone := mustCreate(t, store, "退職 次郎", "退職 次郎", roster.DepartmentFactory, 2)

	_, err := store.Toggle(ctx, gone.ID)
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	idx := roster.NewIndex(list)

	active := idx.Active()
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].EmployeeID)

	// The inactive employee still resolves by name, flagged inactive.
	meta, ok := idx.Lookup("退職 次郎")
	require.True(t, ok)
	assert.False(t, meta.Active)
}
