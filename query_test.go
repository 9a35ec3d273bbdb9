package objstore_test

import (
	"context"
	"testing"

	"github.com/arllen133/objstore"
	"github.com/arllen133/objstore/field"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	kind = field.NewString("kind")
	rank = field.NewNumber[int]("rank")
)

func seedItems(t *testing.T, app *objstore.App) {
	t.Helper()
	_, err := app.Store.CreateObjects(context.Background(), objstore.CreateObjectsInput{
		ClassName: "Item",
		Data: []objstore.Object{
			{"name": "a", "rank": 3, "kind": "x"},
			{"name": "b", "rank": 1, "kind": "x"},
			{"name": "c", "rank": 2, "kind": "y"},
			{"name": "d", "rank": 4, "kind": "x"},
		},
	})
	require.NoError(t, err)
}

func itemNames(objs []objstore.Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i], _ = o["name"].(string)
	}
	return out
}

func TestQueryImmutability(t *testing.T) {
	app := setupApp(t)
	seedItems(t, app)
	ctx := context.Background()

	base := app.Store.Query("Item").Where(kind.Eq("x"))
	high := base.Where(rank.Gte(3))
	_ = base.Where(rank.Lt(2))

	objs, err := high.OrderBy(rank.Asc()).Find(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, itemNames(objs))

	objs, err = base.OrderBy(rank.Asc()).Find(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "d"}, itemNames(objs), "deriving queries leaves the base untouched")
}

func TestQueryFindFirstCount(t *testing.T) {
	app := setupApp(t)
	seedItems(t, app)
	ctx := context.Background()

	q := app.Store.Query("Item").OrderBy(rank.Desc())

	objs, err := q.Offset(1).Limit(2).Select("name").Find(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, itemNames(objs))
	assert.NotContains(t, objs[0], "rank")

	first, err := q.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "d", first["name"])

	n, err := q.Where(kind.Eq("x")).Limit(1).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "count ignores limit")

	ok, err := q.Where(kind.Eq("z")).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = q.Where(kind.Eq("z")).First(ctx)
	assert.ErrorIs(t, err, objstore.ErrNotFound)
}

func TestQueryUpdateAndDeleteRunHooks(t *testing.T) {
	var deleted int
	app := setupApp(t,
		objstore.HookDescriptor{OperationType: objstore.BeforeUpdate, ClassName: "Item", Priority: 1, Callback: func(_ context.Context, obj *objstore.HookObject) error {
			obj.SetNewData("touched", true)
			return nil
		}},
		objstore.HookDescriptor{OperationType: objstore.AfterDelete, ClassName: "Item", Priority: 1, Callback: func(context.Context, *objstore.HookObject) error {
			deleted++
			return nil
		}},
	)
	seedItems(t, app)
	ctx := context.Background()

	xs := app.Store.Query("Item").Where(kind.Eq("x")).WithContext(app.NewContext(false))

	updated, err := xs.Update(ctx, objstore.Object{"rank": 0})
	require.NoError(t, err)
	require.Len(t, updated, 3)
	for _, obj := range updated {
		assert.Equal(t, true, obj["touched"])
	}

	removed, err := xs.Where(rank.Eq(0)).Delete(ctx)
	require.NoError(t, err)
	assert.Len(t, removed, 3)
	assert.Equal(t, 3, deleted)

	_, err = app.Store.Query("Item").WithContext(app.NewContext(false)).SkipHooks().Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted, "SkipHooks bypasses AfterDelete")

	n, err := app.Store.Query("Item").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueryAggregates(t *testing.T) {
	app := setupApp(t)
	seedItems(t, app)
	ctx := context.Background()

	xs := app.Store.Query("Item").Where(kind.Eq("x")).Limit(1)

	sum, err := xs.Sum(ctx, rank)
	require.NoError(t, err)
	assert.Equal(t, 8.0, sum, "aggregates ignore limit")

	avg, err := xs.Avg(ctx, rank)
	require.NoError(t, err)
	assert.InDelta(t, 8.0/3, avg, 1e-9)

	lo, err := app.Store.Query("Item").Min(ctx, rank)
	require.NoError(t, err)
	assert.EqualValues(t, 1, lo)

	hi, err := app.Store.Query("Item").Max(ctx, kind)
	require.NoError(t, err)
	assert.Equal(t, "y", hi)

	missing, err := app.Store.Query("Item").Sum(ctx, field.NewNumber[int]("score"))
	require.NoError(t, err)
	assert.Zero(t, missing)

	none, err := app.Store.Query("Nothing").Max(ctx, rank)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = xs.Sum(ctx, field.NewNumber[int](""))
	assert.ErrorIs(t, err, objstore.ErrInvalidOperation)
}

func TestQuerySumDecimal(t *testing.T) {
	app := setupApp(t)
	ctx := context.Background()
	_, err := app.Store.CreateObjects(ctx, objstore.CreateObjectsInput{
		ClassName: "Order",
		Data:      []objstore.Object{{"total": 19.5}, {"total": 5.25}, {"total": 3}},
	})
	require.NoError(t, err)

	total, err := app.Store.Query("Order").SumDecimal(ctx, field.NewNumber[float64]("total"))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("27.75")), total.String())

	empty, err := app.Store.Query("Refund").SumDecimal(ctx, field.NewNumber[float64]("total"))
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}
