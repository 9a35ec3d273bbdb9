package field

import (
	"encoding/json"

	"github.com/arllen133/objstore/clause"
	"golang.org/x/exp/constraints"
)

// Number represents a numeric document field of integer or float type.
// Stored documents decode numbers as float64; Value converts them back to T.
type Number[T constraints.Integer | constraints.Float] struct {
	name string
}

func NewNumber[T constraints.Integer | constraints.Float](name string) Number[T] {
	return Number[T]{name: name}
}

func (n Number[T]) Name() string { return n.name }

// WithName returns a copy of the field bound to another name.
func (n Number[T]) WithName(name string) Number[T] { return Number[T]{name: name} }

// Query functions

// Eq creates an equality comparison expression (field = value).
func (n Number[T]) Eq(value T) clause.Expression {
	return clause.Eq{Field: n.name, Value: value}
}

// Neq creates a not equal comparison expression (field <> value).
func (n Number[T]) Neq(value T) clause.Expression {
	return clause.Neq{Field: n.name, Value: value}
}

// Gt creates a greater than comparison expression (field > value).
func (n Number[T]) Gt(value T) clause.Expression {
	return clause.Gt{Field: n.name, Value: value}
}

// Gte creates a greater than or equal comparison expression (field >= value).
func (n Number[T]) Gte(value T) clause.Expression {
	return clause.Gte{Field: n.name, Value: value}
}

// Lt creates a less than comparison expression (field < value).
func (n Number[T]) Lt(value T) clause.Expression {
	return clause.Lt{Field: n.name, Value: value}
}

// Lte creates a less than or equal comparison expression (field <= value).
func (n Number[T]) Lte(value T) clause.Expression {
	return clause.Lte{Field: n.name, Value: value}
}

// Between matches v1 <= field <= v2.
func (n Number[T]) Between(v1, v2 T) clause.Expression {
	return clause.And{n.Gte(v1), n.Lte(v2)}
}

// In creates an IN comparison expression (field IN (values...)).
func (n Number[T]) In(values ...T) clause.Expression {
	return clause.IN{Field: n.name, Values: toAny(values)}
}

// NotIn creates a NOT IN comparison expression.
func (n Number[T]) NotIn(values ...T) clause.Expression {
	return clause.Not{Expr: clause.IN{Field: n.name, Values: toAny(values)}}
}

func (n Number[T]) IsNull() clause.Expression    { return clause.IsNull{Field: n.name} }
func (n Number[T]) IsNotNull() clause.Expression { return clause.IsNotNull{Field: n.name} }

// Set creates an assignment for an update patch.
func (n Number[T]) Set(val T) Assignment { return Assignment{Field: n.name, Value: val} }

// Unset creates an assignment removing the field.
func (n Number[T]) Unset() Assignment { return Assignment{Field: n.name} }

func (n Number[T]) Asc() clause.OrderBy  { return clause.OrderBy{Field: n.name} }
func (n Number[T]) Desc() clause.OrderBy { return clause.OrderBy{Field: n.name, Desc: true} }

// Value returns the stored number converted to T.
func (n Number[T]) Value(doc map[string]any) (T, bool) {
	switch v := doc[n.name].(type) {
	case float64:
		return T(v), true
	case float32:
		return T(v), true
	case int:
		return T(v), true
	case int32:
		return T(v), true
	case int64:
		return T(v), true
	case uint:
		return T(v), true
	case uint64:
		return T(v), true
	case T:
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return T(f), true
	}
	return 0, false
}
