// Package clause provides filter expressions over document fields.
//
// Expressions are compiled against a FieldResolver, which turns a document field
// name into the SQL that reads it (usually a JSON extraction on the data column).
package clause

import (
	"fmt"
	"slices"
	"strings"
)

// FieldResolver maps a document field to a SQL fragment and its arguments.
type FieldResolver interface {
	FieldSQL(field string) (sql string, args []any)
}

// Expression is the base interface for all filter expressions
type Expression interface {
	Build(r FieldResolver) (sql string, args []any, err error)
}

// Field names a document field and offers expression constructors.
type Field struct {
	Name string
}

// F returns the Field called name.
func F(name string) Field { return Field{Name: name} }

func (f Field) Eq(v any) Expression { return Eq{Field: f.Name, Value: v} }
func (f Field) Neq(v any) Expression { return Neq{Field: f.Name, Value: v} }
func (f Field) Gt(v any) Expression { return Gt{Field: f.Name, Value: v} }
func (f Field) Gte(v any) Expression { return Gte{Field: f.Name, Value: v} }
func (f Field) Lt(v any) Expression { return Lt{Field: f.Name, Value: v} }
func (f Field) Lte(v any) Expression { return Lte{Field: f.Name, Value: v} }
func (f Field) Like(pattern string) Expression { return Like{Field: f.Name, Value: pattern} }
func (f Field) In(values ...any) Expression { return IN{Field: f.Name, Values: values} }
func (f Field) IsNull() Expression { return IsNull{Field: f.Name} }
func (f Field) IsNotNull() Expression { return IsNotNull{Field: f.Name} }

// Asc orders by the field ascending.
func (f Field) Asc() OrderBy { return OrderBy{Field: f.Name} }

// Desc orders by the field descending.
func (f Field) Desc() OrderBy { return OrderBy{Field: f.Name, Desc: true} }

func validField(field string) error {
	if field == "" {
		return fmt.Errorf("clause: empty field name")
	}
	return nil
}

// compare builds "<field> <op> ?".
func compare(r FieldResolver, field, op string, value any) (string, []any, error) {
	if err := validField(field); err != nil {
		return "", nil, err
	}
	sql, args := r.FieldSQL(field)
	return sql + " " + op + " ?", append(args, value), nil
}

// Eq represents field = value
type Eq struct {
	Field string
	Value any
}

func (e Eq) Build(r FieldResolver) (string, []any, error) {
	if e.Value == nil {
		return IsNull{Field: e.Field}.Build(r)
	}
	return compare(r, e.Field, "=", e.Value)
}

// Neq represents field <> value
type Neq struct {
	Field string
	Value any
}

func (n Neq) Build(r FieldResolver) (string, []any, error) {
	if n.Value == nil {
		return IsNotNull{Field: n.Field}.Build(r)
	}
	return compare(r, n.Field, "<>", n.Value)
}

// Gt represents field > value
type Gt struct {
	Field string
	Value any
}

func (g Gt) Build(r FieldResolver) (string, []any, error) {
	return compare(r, g.Field, ">", g.Value)
}

// Gte represents field >= value
type Gte struct {
	Field string
	Value any
}

func (g Gte) Build(r FieldResolver) (string, []any, error) {
	return compare(r, g.Field, ">=", g.Value)
}

// Lt represents field < value
type Lt struct {
	Field string
	Value any
}

func (l Lt) Build(r FieldResolver) (string, []any, error) {
	return compare(r, l.Field, "<", l.Value)
}

// Lte represents field <= value
type Lte struct {
	Field string
	Value any
}

func (l Lte) Build(r FieldResolver) (string, []any, error) {
	return compare(r, l.Field, "<=", l.Value)
}

// Like represents field LIKE pattern
type Like struct {
	Field string
	Value string
}

func (l Like) Build(r FieldResolver) (string, []any, error) {
	return compare(r, l.Field, "LIKE", l.Value)
}

// IsNull matches documents where the field is null or missing.
type IsNull struct {
	Field string
}

func (i IsNull) Build(r FieldResolver) (string, []any, error) {
	if err := validField(i.Field); err != nil {
		return "", nil, err
	}
	sql, args := r.FieldSQL(i.Field)
	return sql + " IS NULL", args, nil
}

// IsNotNull matches documents where the field is present and not null.
type IsNotNull struct {
	Field string
}

func (i IsNotNull) Build(r FieldResolver) (string, []any, error) {
	if err := validField(i.Field); err != nil {
		return "", nil, err
	}
	sql, args := r.FieldSQL(i.Field)
	return sql + " IS NOT NULL", args, nil
}

// IN represents field IN (values...)
type IN struct {
	Field  string
	Values []any
}

func (i IN) Build(r FieldResolver) (string, []any, error) {
	if err := validField(i.Field); err != nil {
		return "", nil, err
	}
	switch len(i.Values) {
	case 0:
		return "1 = 0", nil, nil // IN with empty list is always false
	case 1:
		return compare(r, i.Field, "=", i.Values[0])
	}
	sql, args := r.FieldSQL(i.Field)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(i.Values)), ", ")
	return fmt.Sprintf("%s IN (%s)", sql, placeholders), append(args, i.Values...), nil
}

// And represents an AND expression
type And []Expression

func (a And) Build(r FieldResolver) (string, []any, error) {
	if len(a) == 0 {
		return "1 = 1", nil, nil // Empty AND is always true
	}
	return join(r, a, " AND ")
}

// Or represents an OR expression
type Or []Expression

func (o Or) Build(r FieldResolver) (string, []any, error) {
	if len(o) == 0 {
		return "1 = 0", nil, nil // Empty OR is always false
	}
	return join(r, o, " OR ")
}

func join(r FieldResolver, exprs []Expression, sep string) (string, []any, error) {
	sqls := make([]string, 0, len(exprs))
	var args []any
	for _, expr := range exprs {
		sql, exprArgs, err := expr.Build(r)
		if err != nil {
			return "", nil, err
		}
		sqls = append(sqls, "("+sql+")")
		args = append(args, exprArgs...)
	}
	return strings.Join(sqls, sep), args, nil
}

// Not represents a NOT expression
type Not struct {
	Expr Expression
}

func (n Not) Build(r FieldResolver) (string, []any, error) {
	sql, args, err := n.Expr.Build(r)
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sql + ")", args, nil
}

// Expr represents a custom SQL expression
type Expr struct {
	SQL  string
	Vars []any
}

func (e Expr) Build(FieldResolver) (string, []any, error) {
	return e.SQL, e.Vars, nil
}

// Match builds an AND of equalities from a field/value map, in sorted field order.
func Match(fields map[string]any) Expression {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	and := make(And, len(names))
	for i, name := range names {
		and[i] = Eq{Field: name, Value: fields[name]}
	}
	return and
}

// OrderBy orders results by a document field.
type OrderBy struct {
	Field string
	Desc  bool
}

func (o OrderBy) Build(r FieldResolver) (string, []any, error) {
	if err := validField(o.Field); err != nil {
		return "", nil, err
	}
	sql, args := r.FieldSQL(o.Field)
	if o.Desc {
		sql += " DESC"
	}
	return sql, args, nil
}
