package field

import "github.com/arllen133/objstore/clause"

// String is a text document field.
type String struct {
	name string
}

func NewString(name string) String { return String{name: name} }

func (s String) Name() string { return s.name }

// WithName returns a copy of the field bound to another name.
func (s String) WithName(name string) String { return String{name: name} }

// Query functions

// Eq creates an equality comparison expression (field = value).
func (s String) Eq(value string) clause.Expression {
	return clause.Eq{Field: s.name, Value: value}
}

// Neq creates a not equal comparison expression (field <> value).
func (s String) Neq(value string) clause.Expression {
	return clause.Neq{Field: s.name, Value: value}
}

// Like creates a pattern matching expression (field LIKE pattern).
func (s String) Like(pattern string) clause.Expression {
	return clause.Like{Field: s.name, Value: pattern}
}

// NotLike creates a negated pattern matching expression.
func (s String) NotLike(pattern string) clause.Expression {
	return clause.Not{Expr: clause.Like{Field: s.name, Value: pattern}}
}

// In creates an IN comparison expression (field IN (values...)).
func (s String) In(values ...string) clause.Expression {
	return clause.IN{Field: s.name, Values: toAny(values)}
}

// NotIn creates a NOT IN comparison expression.
func (s String) NotIn(values ...string) clause.Expression {
	return clause.Not{Expr: clause.IN{Field: s.name, Values: toAny(values)}}
}

func (s String) IsNull() clause.Expression    { return clause.IsNull{Field: s.name} }
func (s String) IsNotNull() clause.Expression { return clause.IsNotNull{Field: s.name} }

// Set creates an assignment for an update patch.
func (s String) Set(val string) Assignment { return Assignment{Field: s.name, Value: val} }

// Unset creates an assignment removing the field.
func (s String) Unset() Assignment { return Assignment{Field: s.name} }

func (s String) Asc() clause.OrderBy  { return clause.OrderBy{Field: s.name} }
func (s String) Desc() clause.OrderBy { return clause.OrderBy{Field: s.name, Desc: true} }

// Value returns the stored string. ok is false when the field is missing or not a string.
func (s String) Value(doc map[string]any) (string, bool) {
	v, ok := doc[s.name].(string)
	return v, ok
}

func toAny[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
