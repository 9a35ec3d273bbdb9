package field

import "github.com/arllen133/objstore/clause"

// Bool is a boolean document field.
type Bool struct {
	name string
}

func NewBool(name string) Bool { return Bool{name: name} }

func (b Bool) Name() string { return b.name }

// WithName returns a copy of the field bound to another name.
func (b Bool) WithName(name string) Bool { return Bool{name: name} }

// Eq creates an equality comparison expression (field = value).
func (b Bool) Eq(value bool) clause.Expression {
	return clause.Eq{Field: b.name, Value: value}
}

// Neq creates a not equal comparison expression (field <> value).
func (b Bool) Neq(value bool) clause.Expression {
	return clause.Neq{Field: b.name, Value: value}
}

// IsTrue matches documents where the field is true.
func (b Bool) IsTrue() clause.Expression { return b.Eq(true) }

// IsFalse matches documents where the field is false.
func (b Bool) IsFalse() clause.Expression { return b.Eq(false) }

func (b Bool) IsNull() clause.Expression    { return clause.IsNull{Field: b.name} }
func (b Bool) IsNotNull() clause.Expression { return clause.IsNotNull{Field: b.name} }

// Set creates an assignment for an update patch.
func (b Bool) Set(val bool) Assignment { return Assignment{Field: b.name, Value: val} }

// Unset creates an assignment removing the field.
func (b Bool) Unset() Assignment { return Assignment{Field: b.name} }

func (b Bool) Asc() clause.OrderBy  { return clause.OrderBy{Field: b.name} }
func (b Bool) Desc() clause.OrderBy { return clause.OrderBy{Field: b.name, Desc: true} }

// Value returns the stored boolean.
func (b Bool) Value(doc map[string]any) (bool, bool) {
	v, ok := doc[b.name].(bool)
	return v, ok
}
