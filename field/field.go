// Package field provides typed handles on document fields: filter and order
// expressions for queries, assignments for patches, and typed reads of stored values.
//
//	var (
//		Title = field.NewString("title")
//		Rank  = field.NewNumber[int]("rank")
//	)
//
//	where := clause.And{Title.Like("go%"), Rank.Gte(3)}
//	patch := field.Patch(Title.Set("Go"), Rank.Unset())
package field

import "github.com/arllen133/objstore/clause"

// Field is an untyped document field.
// Use this for values that don't have a specific field type.
type Field struct {
	name string
}

// New returns a Field for the named document field.
func New(name string) Field { return Field{name: name} }

// Name returns the document field name.
func (f Field) Name() string { return f.name }

// WithName returns a copy of the field bound to another name.
func (f Field) WithName(name string) Field { return Field{name: name} }

// Query functions

// Eq creates an equality comparison expression (field = value).
func (f Field) Eq(value any) clause.Expression {
	return clause.Eq{Field: f.name, Value: value}
}

// Neq creates a not equal comparison expression (field <> value).
func (f Field) Neq(value any) clause.Expression {
	return clause.Neq{Field: f.name, Value: value}
}

// In creates an IN comparison expression (field IN (values...)).
func (f Field) In(values ...any) clause.Expression {
	return clause.IN{Field: f.name, Values: values}
}

// NotIn creates a NOT IN comparison expression.
func (f Field) NotIn(values ...any) clause.Expression {
	return clause.Not{Expr: clause.IN{Field: f.name, Values: values}}
}

// IsNull matches documents where the field is null or missing.
func (f Field) IsNull() clause.Expression {
	return clause.IsNull{Field: f.name}
}

// IsNotNull matches documents where the field is set.
func (f Field) IsNotNull() clause.Expression {
	return clause.IsNotNull{Field: f.name}
}

// Patch functions

// Set creates an assignment for an update patch.
func (f Field) Set(value any) Assignment {
	return Assignment{Field: f.name, Value: value}
}

// Unset creates an assignment removing the field.
func (f Field) Unset() Assignment {
	return Assignment{Field: f.name}
}

// Order expressions

func (f Field) Asc() clause.OrderBy  { return clause.OrderBy{Field: f.name} }
func (f Field) Desc() clause.OrderBy { return clause.OrderBy{Field: f.name, Desc: true} }

// Value returns the stored value of the field.
func (f Field) Value(doc map[string]any) (any, bool) {
	v, ok := doc[f.name]
	return v, ok
}

// Assignment sets one field of an update patch. A nil Value removes the field.
type Assignment struct {
	Field string
	Value any
}

// Patch builds an update patch from assignments. Later assignments win.
func Patch(assignments ...Assignment) map[string]any {
	patch := make(map[string]any, len(assignments))
	for _, a := range assignments {
		patch[a.Field] = a.Value
	}
	return patch
}
