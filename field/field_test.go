package field_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/arllen133/objstore/clause"
	"github.com/arllen133/objstore/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// columns renders fields as bare names.
type columns struct{}

func (columns) FieldSQL(name string) (string, []any) { return name, nil }

func build(t *testing.T, expr clause.Expression) (string, []any) {
	t.Helper()
	sql, args, err := expr.Build(columns{})
	require.NoError(t, err)
	return sql, args
}

func TestStringField(t *testing.T) {
	username := field.NewString("username")

	sql, args := build(t, username.Eq("alice"))
	assert.Equal(t, "username = ?", sql)
	assert.Equal(t, []any{"alice"}, args)

	sql, _ = build(t, username.Like("%alice%"))
	assert.Equal(t, "username LIKE ?", sql)

	sql, _ = build(t, username.NotLike("%bot"))
	assert.Equal(t, "NOT (username LIKE ?)", sql)

	sql, args = build(t, username.In("alice", "bob", "charlie"))
	assert.Equal(t, "username IN (?, ?, ?)", sql)
	assert.Len(t, args, 3)

	v, ok := username.Value(map[string]any{"username": "alice"})
	assert.True(t, ok)
	assert.Equal(t, "alice", v)
	_, ok = username.Value(map[string]any{"username": 3.0})
	assert.False(t, ok)

	assert.Equal(t, "login", username.WithName("login").Name())
}

func TestNumberField(t *testing.T) {
	age := field.NewNumber[int]("age")

	sql, args := build(t, age.Gt(18))
	assert.Equal(t, "age > ?", sql)
	assert.Equal(t, []any{18}, args)

	sql, args = build(t, age.Between(18, 65))
	assert.Equal(t, "(age >= ?) AND (age <= ?)", sql)
	assert.Equal(t, []any{18, 65}, args)

	sql, _ = build(t, age.NotIn(1, 2))
	assert.Equal(t, "NOT (age IN (?, ?))", sql)

	v, ok := age.Value(map[string]any{"age": 42.0})
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	v, ok = age.Value(map[string]any{"age": json.Number("7")})
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = age.Value(map[string]any{"age": "42"})
	assert.False(t, ok)

	price := field.NewNumber[float64]("price")
	p, ok := price.Value(map[string]any{"price": 9.5})
	assert.True(t, ok)
	assert.Equal(t, 9.5, p)
}

func TestBoolField(t *testing.T) {
	active := field.NewBool("active")

	sql, args := build(t, active.IsTrue())
	assert.Equal(t, "active = ?", sql)
	assert.Equal(t, []any{true}, args)

	sql, _ = build(t, active.IsNull())
	assert.Equal(t, "active IS NULL", sql)

	v, ok := active.Value(map[string]any{"active": false})
	assert.True(t, ok)
	assert.False(t, v)
}

func TestTimeField(t *testing.T) {
	created := field.NewTime("createdAt")
	at := time.Date(2024, 5, 1, 12, 30, 0, 500, time.FixedZone("CEST", 2*3600))

	assert.Equal(t, "2024-05-01T10:30:00.000000500Z", field.FormatTime(at))

	sql, args := build(t, created.Gte(at))
	assert.Equal(t, "createdAt >= ?", sql)
	assert.Equal(t, []any{"2024-05-01T10:30:00.000000500Z"}, args)

	v, ok := created.Value(map[string]any{"createdAt": "2024-05-01T10:30:00.000000500Z"})
	require.True(t, ok)
	assert.True(t, v.Equal(at))

	v, ok = created.Value(map[string]any{"createdAt": "2024-05-01T10:30:00Z"})
	require.True(t, ok)
	assert.Equal(t, 10, v.Hour())

	_, ok = created.Value(map[string]any{"createdAt": "yesterday"})
	assert.False(t, ok)
}

func TestTimeLayoutSortsAsText(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := field.FormatTime(base)
	later := field.FormatTime(base.Add(500 * time.Millisecond))
	assert.Less(t, earlier, later)
}

func TestPatch(t *testing.T) {
	title := field.NewString("title")
	rank := field.NewNumber[int]("rank")
	published := field.NewTime("publishedAt")
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	patch := field.Patch(title.Set("Go"), rank.Unset(), published.Set(at), field.New("tags").Set([]string{"a"}))
	assert.Equal(t, map[string]any{
		"title":       "Go",
		"rank":        nil,
		"publishedAt": "2024-01-01T00:00:00.000000000Z",
		"tags":        []string{"a"},
	}, patch)
}

func TestOrder(t *testing.T) {
	assert.Equal(t, clause.OrderBy{Field: "rank", Desc: true}, field.NewNumber[int]("rank").Desc())
	assert.Equal(t, clause.OrderBy{Field: "title"}, field.NewString("title").Asc())
}
