package field

import (
	"time"

	"github.com/arllen133/objstore/clause"
)

// TimeLayout is how Time fields are stored: RFC 3339 in UTC with a fixed-width
// fraction, so that string comparison in SQL orders values chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime returns t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Time is a timestamp document field stored as a TimeLayout string.
type Time struct {
	name string
}

func NewTime(name string) Time { return Time{name: name} }

func (t Time) Name() string { return t.name }

// WithName returns a copy of the field bound to another name.
func (t Time) WithName(name string) Time { return Time{name: name} }

// Query functions

// Eq creates an equality comparison expression (field = value).
func (t Time) Eq(value time.Time) clause.Expression {
	return clause.Eq{Field: t.name, Value: FormatTime(value)}
}

// Neq creates a not equal comparison expression (field <> value).
func (t Time) Neq(value time.Time) clause.Expression {
	return clause.Neq{Field: t.name, Value: FormatTime(value)}
}

// Gt creates a greater than comparison expression (field > value).
func (t Time) Gt(value time.Time) clause.Expression {
	return clause.Gt{Field: t.name, Value: FormatTime(value)}
}

// Gte creates a greater than or equal comparison expression (field >= value).
func (t Time) Gte(value time.Time) clause.Expression {
	return clause.Gte{Field: t.name, Value: FormatTime(value)}
}

// Lt creates a less than comparison expression (field < value).
func (t Time) Lt(value time.Time) clause.Expression {
	return clause.Lt{Field: t.name, Value: FormatTime(value)}
}

// Lte creates a less than or equal comparison expression (field <= value).
func (t Time) Lte(value time.Time) clause.Expression {
	return clause.Lte{Field: t.name, Value: FormatTime(value)}
}

// Between matches v1 <= field <= v2.
func (t Time) Between(v1, v2 time.Time) clause.Expression {
	return clause.And{t.Gte(v1), t.Lte(v2)}
}

func (t Time) IsNull() clause.Expression    { return clause.IsNull{Field: t.name} }
func (t Time) IsNotNull() clause.Expression { return clause.IsNotNull{Field: t.name} }

// Set creates an assignment for an update patch.
func (t Time) Set(val time.Time) Assignment {
	return Assignment{Field: t.name, Value: FormatTime(val)}
}

// Unset creates an assignment removing the field.
func (t Time) Unset() Assignment { return Assignment{Field: t.name} }

func (t Time) Asc() clause.OrderBy  { return clause.OrderBy{Field: t.name} }
func (t Time) Desc() clause.OrderBy { return clause.OrderBy{Field: t.name, Desc: true} }

// Value parses the stored timestamp. Any RFC 3339 string is accepted.
func (t Time) Value(doc map[string]any) (time.Time, bool) {
	switch v := doc[t.name].(type) {
	case time.Time:
		return v, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
