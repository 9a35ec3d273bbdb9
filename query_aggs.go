// This file implements aggregate terminals for Query: SUM, AVG, MIN and MAX over a
// document field.
//
// Usage examples:
//
//	total, err := app.Store.Query("Order").Sum(ctx, field.NewNumber[float64]("total"))
//
//	avg, err := app.Store.Query("User").
//		Where(field.NewString("status").Eq("active")).
//		Avg(ctx, field.NewNumber[int]("age"))
//
//	newest, err := app.Store.Query("Post").Max(ctx, field.NewTime(objstore.CreatedAtField))
//
// Aggregates read storage directly: they run no hooks, and Limit, Offset and
// OrderBy are ignored. Documents missing the field do not contribute.
package objstore

import (
	"context"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

// Named is anything that names a document field, such as the typed fields of
// package field.
type Named interface {
	Name() string
}

// Sum returns the total of a numeric field, or 0 when nothing matches.
func (q *Query) Sum(ctx context.Context, f Named) (float64, error) {
	return q.aggregateFloat(ctx, "SUM", f.Name())
}

// Avg returns the mean of a numeric field, or 0 when nothing matches.
func (q *Query) Avg(ctx context.Context, f Named) (float64, error) {
	return q.aggregateFloat(ctx, "AVG", f.Name())
}

// SumDecimal is Sum without float rounding, for amounts such as prices.
func (q *Query) SumDecimal(ctx context.Context, f Named) (decimal.Decimal, error) {
	val, err := q.aggregateAny(ctx, "SUM", f.Name(), true)
	if err != nil || val == nil {
		return decimal.Zero, err
	}

	switch v := val.(type) {
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("objstore: SUM(%s) returned %q: %w", f.Name(), v, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("objstore: unexpected type %T for SUM(%s)", val, f.Name())
	}
}

// Min returns the smallest value of a field as the driver reports it, or nil
// when nothing matches. Text values come back as strings.
func (q *Query) Min(ctx context.Context, f Named) (any, error) {
	return q.aggregateAny(ctx, "MIN", f.Name(), false)
}

// Max is Min for the largest value.
func (q *Query) Max(ctx context.Context, f Named) (any, error) {
	return q.aggregateAny(ctx, "MAX", f.Name(), false)
}

// aggregateFloat runs a numeric aggregate. Drivers report DECIMAL and NUMERIC
// results as text, so those are parsed.
func (q *Query) aggregateFloat(ctx context.Context, funcName, name string) (float64, error) {
	val, err := q.aggregateAny(ctx, funcName, name, true)
	if err != nil || val == nil {
		return 0, err
	}

	switch v := val.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("objstore: %s(%s) returned %q: %w", funcName, name, v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("objstore: unexpected type %T for %s(%s)", val, funcName, name)
	}
}

func (q *Query) aggregateAny(ctx context.Context, funcName, name string, numeric bool) (any, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: aggregate needs a field", ErrInvalidOperation)
	}

	dialect := q.store.session.dialect
	expr, exprArgs := dialect.FieldSQL(name)
	if numeric {
		expr, exprArgs = dialect.NumericFieldSQL(name)
	}
	column := sq.Expr(fmt.Sprintf("%s(%s)", funcName, expr), exprArgs...)

	builder, err := q.store.filtered(sq.Select().Column(column).From(q.store.table), q.className, q.where())
	if err != nil {
		return nil, err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("objstore: failed to build sql: %w", err)
	}

	var result any
	if err := q.store.session.Get(ctx, &result, query, args...); err != nil {
		return nil, fmt.Errorf("objstore: %s(%s) failed: %w", funcName, name, err)
	}
	if b, ok := result.([]byte); ok {
		result = string(b)
	}
	return result, nil
}
